// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package importer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kb-migrate/internal/records"
	"github.com/pdiddy/kb-migrate/pkg/types"
)

// failurePreview is how many failures PersistFailures lists inline.
const failurePreview = 10

// PrintStats writes the run summary: counts, success rate against the full
// record list, elapsed time, and throughput over the records processed.
func PrintStats(w io.Writer, res Result, elapsed time.Duration) {
	s := res.Stats
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, "Import summary:")
	fmt.Fprintf(w, "  total:        %s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(w, "  succeeded:    %s\n", humanize.Comma(int64(s.Success)))
	fmt.Fprintf(w, "  skipped:      %s\n", humanize.Comma(int64(s.Skipped)))
	fmt.Fprintf(w, "  failed:       %s\n", humanize.Comma(int64(s.Failed)))
	fmt.Fprintf(w, "  success rate: %.2f%%\n", s.SuccessRate())
	if elapsed > 0 {
		processed := s.Success + s.Skipped + s.Failed
		fmt.Fprintf(w, "  elapsed:      %s\n", elapsed.Round(10*time.Millisecond))
		fmt.Fprintf(w, "  throughput:   %s records/s\n", humanize.CommafWithDigits(float64(processed)/elapsed.Seconds(), 2))
	}
	fmt.Fprintln(w, rule)
}

// PersistFailures writes failures to path as a JSON array and lists the
// first few. With no failures it writes nothing.
func PersistFailures(path string, failures []types.FailedRecord, w io.Writer) error {
	if len(failures) == 0 {
		fmt.Fprintln(w, "\nAll records imported successfully.")
		return nil
	}

	if err := records.WriteJSON(path, failures); err != nil {
		return fmt.Errorf("saving failure log: %w", err)
	}

	fmt.Fprintf(w, "\nSaved %d failed record(s) to %s\n", len(failures), path)
	for i, f := range failures {
		if i >= failurePreview {
			fmt.Fprintf(w, "  ... and %d more\n", len(failures)-failurePreview)
			break
		}
		fmt.Fprintf(w, "  - [index %d] QA %s - %s\n", f.Index, f.QAID, f.Title)
	}
	return nil
}

// WriteSummary writes a run summary as YAML.
func WriteSummary(path string, summary types.RunSummary) error {
	data, err := yaml.Marshal(&summary)
	if err != nil {
		return fmt.Errorf("marshaling run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run summary: %w", err)
	}
	return nil
}
