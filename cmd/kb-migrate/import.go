package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pdiddy/kb-migrate/internal/httputil"
	"github.com/pdiddy/kb-migrate/internal/importer"
	"github.com/pdiddy/kb-migrate/internal/ledger"
	"github.com/pdiddy/kb-migrate/internal/records"
	"github.com/pdiddy/kb-migrate/internal/secrets"
	"github.com/pdiddy/kb-migrate/pkg/types"
)

const defaultFailedLog = "failed_imports.json"

var importCmd = &cobra.Command{
	Use:   "import <transformed.json>",
	Short: "Upload transformed records to the knowledge base",
	Long: `Import uploads transformed records one at a time to the knowledge-base
passage endpoint. A failed upload is logged and the run continues. Failures
are written to a JSON log when the run ends or is interrupted.

To resume an interrupted run, pass the index printed on interruption as
--start-index. With --skip-existing, records already present in the local
ledger for the same knowledge base are skipped.

Every flag can also be set in the config file or as a KB_MIGRATE_* environment
variable (for example KB_MIGRATE_API_URL). The token may instead be stored in
.secrets/kb-api-token.

Exit status is 0 when every record imported, 1 when any failed or the run
could not start, and 130 when interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// importFlags maps viper keys to the flags that set them.
var importFlags = map[string]string{
	"api_url":       "api-url",
	"token":         "token",
	"kb_id":         "kb-id",
	"batch_size":    "batch-size",
	"start_index":   "start-index",
	"failed_log":    "failed-log",
	"record_delay":  "record-delay",
	"batch_delay":   "batch-delay",
	"timeout":       "timeout",
	"skip_existing": "skip-existing",
	"ledger":        "ledger",
	"num":           "num",
	"summary":       "summary",
}

func init() {
	f := importCmd.Flags()
	f.String("api-url", "", "knowledge-base service base URL (required)")
	f.String("token", "", "bearer token (required; or .secrets/kb-api-token)")
	f.String("kb-id", "", "target knowledge base id (required)")
	f.Int("batch-size", importer.DefaultBatchSize, "records between batch pauses")
	f.Int("start-index", 0, "index of the first record to import")
	f.String("failed-log", defaultFailedLog, "where failed records are written")
	f.Duration("record-delay", importer.DefaultRecordDelay, "pause after every record")
	f.Duration("batch-delay", importer.DefaultBatchDelay, "extra pause after every batch")
	f.Duration("timeout", httputil.DefaultTimeout, "per-request timeout")
	f.Bool("skip-existing", false, "skip records already recorded in the ledger")
	f.String("ledger", "", "ledger database path (default "+ledger.DefaultPath+" when --skip-existing is set)")
	f.Int("num", 0, "stop after this many successful imports (0 = no limit)")
	f.String("summary", "", "write a YAML run summary to this path")

	for key, name := range importFlags {
		viper.BindPFlag(key, f.Lookup(name))
	}

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	input := args[0]

	cfg := types.ImportConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: "kb-migrate/" + version,
		},
		APIURL:          viper.GetString("api_url"),
		Token:           loadedSecrets.Or(secrets.APIToken, viper.GetString("token")),
		KnowledgeBaseID: viper.GetString("kb_id"),
		BatchSize:       viper.GetInt("batch_size"),
		RecordDelay:     viper.GetDuration("record_delay"),
		BatchDelay:      viper.GetDuration("batch_delay"),
		MaxImports:      viper.GetInt("num"),
		SkipExisting:    viper.GetBool("skip_existing"),
	}
	startIndex := viper.GetInt("start_index")
	failedLog := viper.GetString("failed_log")
	if failedLog == "" {
		failedLog = defaultFailedLog
	}

	if cfg.Token == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		token, err := promptToken()
		if err != nil {
			return err
		}
		cfg.Token = token
	}
	if err := checkRequired(cfg); err != nil {
		return err
	}

	lock := flock.New(failedLog + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", failedLog, err)
	}
	if !locked {
		return fmt.Errorf("another import is already writing %s", failedLog)
	}
	defer lock.Unlock()

	recs, err := records.LoadTransformed(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Loaded %d records from %s\n", len(recs), input)

	imp := importer.New(importer.NewClient(cfg, nil), cfg, os.Stdout)

	ledgerPath := viper.GetString("ledger")
	if ledgerPath != "" || cfg.SkipExisting {
		led, err := ledger.Open(types.LedgerConfig{Path: ledgerPath})
		if err != nil {
			return err
		}
		defer led.Close()
		imp.Ledger = led

		if n, err := led.Count(context.Background(), cfg.KnowledgeBaseID); err == nil && n > 0 {
			fmt.Fprintf(os.Stdout, "Ledger has %d import(s) recorded for %s\n", n, cfg.KnowledgeBaseID)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	res, runErr := imp.Run(ctx, recs, startIndex)
	if runErr != nil && !res.Interrupted {
		return runErr
	}
	elapsed := time.Since(started)

	importer.PrintStats(os.Stdout, res, elapsed)

	if path := viper.GetString("summary"); path != "" {
		summary := types.RunSummary{
			Input:           input,
			KnowledgeBaseID: cfg.KnowledgeBaseID,
			StartIndex:      startIndex,
			NextIndex:       res.NextIndex,
			Stats:           res.Stats,
			SuccessRate:     res.Stats.SuccessRate(),
			Elapsed:         elapsed,
			Interrupted:     res.Interrupted,
			LimitReached:    res.LimitReached,
			FinishedAt:      time.Now().UTC(),
		}
		if len(res.Failures) > 0 {
			summary.FailureLog = failedLog
		}
		if err := importer.WriteSummary(path, summary); err != nil {
			return err
		}
	}

	return finishImport(os.Stdout, res, len(recs), failedLog)
}

// finishImport saves the failure log and turns the run result into the
// command's exit status: 130 when interrupted, 1 when any record failed.
func finishImport(w io.Writer, res importer.Result, total int, failedLog string) error {
	if len(res.Failures) > 0 || !res.Interrupted {
		if err := importer.PersistFailures(failedLog, res.Failures, w); err != nil {
			return err
		}
	}

	if res.Interrupted {
		fmt.Fprintf(w, "\nInterrupted after %d successful import(s).\n", res.Stats.Success)
		fmt.Fprintf(w, "Resume with --start-index %d\n", res.NextIndex)
		return &exitError{code: exitInterrupted, err: errors.New("import interrupted")}
	}
	if res.LimitReached && res.NextIndex < total {
		fmt.Fprintf(w, "\nContinue with --start-index %d\n", res.NextIndex)
	}
	if res.Stats.Failed > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d record(s) failed import", res.Stats.Failed)}
	}
	return nil
}

// checkRequired reports every missing connection setting at once.
func checkRequired(cfg types.ImportConfig) error {
	var missing []string
	if cfg.APIURL == "" {
		missing = append(missing, "--api-url")
	}
	if cfg.Token == "" {
		missing = append(missing, "--token")
	}
	if cfg.KnowledgeBaseID == "" {
		missing = append(missing, "--kb-id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func promptToken() (string, error) {
	fmt.Fprint(os.Stderr, "API token: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
