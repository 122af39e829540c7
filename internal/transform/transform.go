// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transform turns raw support threads into knowledge-base passages.
// Each thread is cleaned of HTML, validated, optionally filtered for
// quality, and rendered as one conversational passage with metadata.
package transform

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

const (
	importDateLayout     = "2006-01-02"
	defaultProgressEvery = 100
)

// Transformer converts RawQA threads into TransformedRecords. The zero value
// is usable: no filter, wall clock, no output.
type Transformer struct {
	// Filter rejects low-quality threads. Nil keeps every valid thread.
	Filter Filter

	// Now stamps Metadata.ImportDate. Nil uses time.Now.
	Now func() time.Time

	// Out receives per-record skip/fail lines and progress lines.
	Out io.Writer

	// ProgressEvery prints a progress line every N input records
	// (default 100).
	ProgressEvery int
}

// New returns a Transformer configured from cfg. It loads the keywords file
// when the low-quality filter is enabled.
func New(cfg types.TransformConfig, w io.Writer) (*Transformer, error) {
	t := &Transformer{Out: w, ProgressEvery: cfg.ProgressEvery}
	if cfg.FilterLowQuality {
		kw, err := LoadKeywords(cfg.KeywordsFile)
		if err != nil {
			return nil, err
		}
		t.Filter = NewKeywordFilter(kw)
	}
	return t, nil
}

// Validate reports whether a thread has a title or description, at least
// one reply, and at least one reply with content left after cleaning.
func Validate(raw types.RawQA) bool {
	if raw.Title == "" && raw.Description == "" {
		return false
	}
	for _, r := range raw.Replies {
		if Clean(r.Content) != "" {
			return true
		}
	}
	return false
}

// TransformOne converts a single thread. It returns ErrInvalidRecord when
// Validate fails, the filter's error when the filter rejects the thread, and
// the assembled record otherwise.
func (t *Transformer) TransformOne(raw types.RawQA) (types.TransformedRecord, error) {
	if !Validate(raw) {
		return types.TransformedRecord{}, ErrInvalidRecord
	}
	if t.Filter != nil {
		if err := t.Filter.Check(raw); err != nil {
			return types.TransformedRecord{}, err
		}
	}

	return types.TransformedRecord{
		Title:       Clean(raw.Title),
		Description: Clean(raw.Description),
		Passage:     RenderPassage(raw),
		Metadata: types.Metadata{
			QAID:       string(raw.ID),
			Category:   category(raw),
			Source:     types.SourceHistoricalQA,
			ImportDate: t.now().Format(importDateLayout),
			ReplyCount: len(raw.Replies),
		},
	}, nil
}

// TransformAll converts every thread, continuing past individual skips and
// failures. Output order follows input order; skipped and failed threads
// leave no placeholder.
func (t *Transformer) TransformAll(raws []types.RawQA) ([]types.TransformedRecord, types.TransformStats) {
	stats := types.TransformStats{Total: len(raws)}
	out := make([]types.TransformedRecord, 0, len(raws))
	w := t.writer()

	every := t.ProgressEvery
	if every <= 0 {
		every = defaultProgressEvery
	}

	for i, raw := range raws {
		rec, err := t.TransformOne(raw)
		switch {
		case err == nil:
			out = append(out, rec)
			stats.Success++
		case errors.Is(err, ErrLowQuality):
			stats.Skipped++
			stats.LowQuality++
			fmt.Fprintf(w, "skipped: record %d (id %s): %v\n", i+1, idOrUnknown(raw.ID), err)
		case errors.Is(err, ErrInvalidRecord):
			stats.Skipped++
			fmt.Fprintf(w, "skipped: record %d (id %s): %v\n", i+1, idOrUnknown(raw.ID), err)
		default:
			stats.Failed++
			fmt.Fprintf(w, "failed:  record %d (id %s): %v\n", i+1, idOrUnknown(raw.ID), err)
		}

		if (i+1)%every == 0 {
			fmt.Fprintf(w, "processed %d/%d records\n", i+1, stats.Total)
		}
	}
	return out, stats
}

// PrintStats writes the transform summary.
func PrintStats(w io.Writer, stats types.TransformStats) {
	fmt.Fprintf(w, "\nTransform summary: %d succeeded, %d skipped (%d low quality), %d failed (total: %d)\n",
		stats.Success, stats.Skipped, stats.LowQuality, stats.Failed, stats.Total)
}

func (t *Transformer) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Transformer) writer() io.Writer {
	if t.Out != nil {
		return t.Out
	}
	return io.Discard
}

func idOrUnknown(id types.QAID) string {
	if id == "" {
		return "unknown"
	}
	return string(id)
}
