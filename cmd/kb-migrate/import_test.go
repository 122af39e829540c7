// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/kb-migrate/internal/importer"
	"github.com/pdiddy/kb-migrate/internal/records"
	"github.com/pdiddy/kb-migrate/pkg/types"
)

func TestFinishImport(t *testing.T) {
	failures := []types.FailedRecord{{Index: 1, QAID: "7", Title: "t", Error: "API error 500"}}

	tests := []struct {
		name     string
		res      importer.Result
		wantCode int
		wantOut  []string
		notOut   []string
		wantLog  bool
	}{
		{
			name:     "all succeeded",
			res:      importer.Result{Stats: types.ImportStats{Total: 3, Success: 3}, NextIndex: 3},
			wantCode: 0,
			wantOut:  []string{"All records imported successfully."},
		},
		{
			name: "some failed",
			res: importer.Result{
				Stats:     types.ImportStats{Total: 3, Success: 2, Failed: 1},
				Failures:  failures,
				NextIndex: 3,
			},
			wantCode: 1,
			wantOut:  []string{"Saved 1 failed record(s)"},
			wantLog:  true,
		},
		{
			name: "interrupted without failures",
			res: importer.Result{
				Stats:       types.ImportStats{Total: 10, Success: 4},
				NextIndex:   4,
				Interrupted: true,
			},
			wantCode: exitInterrupted,
			wantOut:  []string{"Interrupted after 4 successful import(s).", "Resume with --start-index 4"},
			notOut:   []string{"All records imported successfully."},
		},
		{
			name: "interrupted with failures",
			res: importer.Result{
				Stats:       types.ImportStats{Total: 10, Success: 2, Failed: 1},
				Failures:    failures,
				NextIndex:   3,
				Interrupted: true,
			},
			wantCode: exitInterrupted,
			wantOut:  []string{"Saved 1 failed record(s)", "Interrupted after 2 successful import(s)."},
			wantLog:  true,
		},
		{
			name: "limit reached",
			res: importer.Result{
				Stats:        types.ImportStats{Total: 10, Success: 2},
				NextIndex:    2,
				LimitReached: true,
			},
			wantCode: 0,
			wantOut:  []string{"Continue with --start-index 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failedLog := filepath.Join(t.TempDir(), "failed.json")
			var out bytes.Buffer

			err := finishImport(&out, tt.res, tt.res.Stats.Total, failedLog)

			assert.Equal(t, tt.wantCode, exitCode(err))
			for _, s := range tt.wantOut {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.notOut {
				assert.NotContains(t, out.String(), s)
			}
			if tt.wantLog {
				saved, err := records.LoadFailures(failedLog)
				require.NoError(t, err)
				assert.Equal(t, failures, saved)
			} else {
				assert.NoFileExists(t, failedLog)
			}
		})
	}
}
