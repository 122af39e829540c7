// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package importer uploads transformed records to the knowledge base one at
// a time. A run starts at a caller-supplied index, continues past
// individual failures, throttles itself with fixed per-record and per-batch
// pauses, and returns its counts and failures as a value.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

const (
	DefaultBatchSize   = 10
	DefaultRecordDelay = 100 * time.Millisecond
	DefaultBatchDelay  = 500 * time.Millisecond

	titleLimit = 50
)

// ErrStartIndex is returned when the start index is outside the record list.
var ErrStartIndex = errors.New("start index out of range")

// Ledger is the subset of the import ledger the importer needs.
type Ledger interface {
	Has(ctx context.Context, kbID, qaID string) (bool, error)
	Record(ctx context.Context, kbID, qaID, knowledgeID string) error
}

// Result is the outcome of one run.
type Result struct {
	Stats    types.ImportStats
	Failures []types.FailedRecord

	// NextIndex is the first index not yet processed; pass it as the start
	// index to resume.
	NextIndex int

	// Interrupted is set when the context was cancelled mid-run.
	Interrupted bool

	// LimitReached is set when the run stopped at Config.MaxImports.
	LimitReached bool
}

// Importer runs imports. Uploader is required; Ledger is optional.
type Importer struct {
	Uploader Uploader
	Ledger   Ledger
	Config   types.ImportConfig
	Out      io.Writer

	wait func(ctx context.Context, d time.Duration) error
}

// New returns an Importer with the default pause implementation.
func New(u Uploader, cfg types.ImportConfig, w io.Writer) *Importer {
	return &Importer{Uploader: u, Config: cfg, Out: w}
}

type outcome int

const (
	outcomeImported outcome = iota
	outcomeSkipped
	outcomeFailed
)

// recordResult is the result of processing one record.
type recordResult struct {
	outcome     outcome
	knowledgeID string
	err         error
}

// Run imports records[startIndex:]. Stats.Total is len(records) regardless
// of startIndex. When ctx is cancelled the run stops between records or
// during a pause and returns the partial result with Interrupted set and
// ctx.Err().
func (imp *Importer) Run(ctx context.Context, records []types.TransformedRecord, startIndex int) (Result, error) {
	if startIndex < 0 || startIndex > len(records) {
		return Result{}, fmt.Errorf("%w: %d not in [0, %d]", ErrStartIndex, startIndex, len(records))
	}

	w := imp.writer()
	batchSize := imp.Config.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	res := Result{
		Stats:     types.ImportStats{Total: len(records)},
		Failures:  []types.FailedRecord{},
		NextIndex: startIndex,
	}

	fmt.Fprintf(w, "\nImporting from record %d (batch size %d, %d total)\n\n", startIndex+1, batchSize, len(records))

	for i := startIndex; i < len(records); i++ {
		if ctx.Err() != nil {
			res.Interrupted = true
			return res, ctx.Err()
		}

		rec := records[i]
		qaID := recordID(rec, i)
		title := truncate(rec.Title, titleLimit)
		fmt.Fprintf(w, "[%d/%d] importing QA %s - %s\n", i+1, len(records), qaID, title)

		r := imp.importOne(ctx, rec)
		if r.err != nil && ctx.Err() != nil {
			// Cancelled mid-request; the record was not processed.
			res.Interrupted = true
			return res, ctx.Err()
		}
		res.NextIndex = i + 1

		switch r.outcome {
		case outcomeSkipped:
			res.Stats.Skipped++
			fmt.Fprintln(w, "  skipped: already imported")
			continue
		case outcomeFailed:
			res.Stats.Failed++
			fmt.Fprintf(w, "  failed:  %v\n", r.err)
			res.Failures = append(res.Failures, types.FailedRecord{
				Index: i,
				QAID:  qaID,
				Title: title,
				Error: r.err.Error(),
			})
		case outcomeImported:
			res.Stats.Success++
			if r.knowledgeID != "" {
				fmt.Fprintf(w, "  imported (knowledge %s)\n", r.knowledgeID)
			} else {
				fmt.Fprintln(w, "  imported")
			}
			if imp.Config.MaxImports > 0 && res.Stats.Success >= imp.Config.MaxImports {
				fmt.Fprintf(w, "\nReached import limit (%d), stopping\n", imp.Config.MaxImports)
				res.LimitReached = true
				return res, nil
			}
		}

		if (i+1)%batchSize == 0 {
			fmt.Fprintf(w, "\n--- completed %d/%d, pausing %v ---\n\n", i+1, len(records), imp.Config.BatchDelay)
			if err := imp.pause(ctx, imp.Config.BatchDelay); err != nil {
				res.Interrupted = true
				return res, err
			}
		}
		if err := imp.pause(ctx, imp.Config.RecordDelay); err != nil {
			res.Interrupted = true
			return res, err
		}
	}
	return res, nil
}

// importOne checks the ledger, uploads, and records the upload. Only a
// record's own QA id is used as a ledger key; records without one are
// always uploaded and never recorded. Ledger errors are reported and never
// fail the record.
func (imp *Importer) importOne(ctx context.Context, rec types.TransformedRecord) recordResult {
	w := imp.writer()
	kbID := imp.Config.KnowledgeBaseID
	qaID := rec.Metadata.QAID
	useLedger := imp.Ledger != nil && qaID != ""

	if useLedger && imp.Config.SkipExisting {
		exists, err := imp.Ledger.Has(ctx, kbID, qaID)
		if err != nil {
			fmt.Fprintf(w, "  warning: ledger check failed: %v, importing anyway\n", err)
		} else if exists {
			return recordResult{outcome: outcomeSkipped}
		}
	}

	resp, err := imp.Uploader.Upload(ctx, rec)
	if err != nil {
		return recordResult{outcome: outcomeFailed, err: err}
	}

	if useLedger {
		// The upload happened; record it even if the run is being interrupted.
		if err := imp.Ledger.Record(context.WithoutCancel(ctx), kbID, qaID, resp.KnowledgeID); err != nil {
			fmt.Fprintf(w, "  warning: %v\n", err)
		}
	}
	return recordResult{outcome: outcomeImported, knowledgeID: resp.KnowledgeID}
}

func (imp *Importer) pause(ctx context.Context, d time.Duration) error {
	if imp.wait != nil {
		return imp.wait(ctx, d)
	}
	return sleep(ctx, d)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (imp *Importer) writer() io.Writer {
	if imp.Out != nil {
		return imp.Out
	}
	return io.Discard
}

// recordID returns the record's QA id, or its 1-based position when the
// metadata carries none.
func recordID(rec types.TransformedRecord, index int) string {
	if rec.Metadata.QAID != "" {
		return rec.Metadata.QAID
	}
	return strconv.Itoa(index + 1)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
