// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/kb-migrate/internal/ledger"
	"github.com/pdiddy/kb-migrate/pkg/types"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect or reset the local record of completed imports",
	Long: `Ledger manages the SQLite database in which import records every
successful upload. import --skip-existing consults it to avoid uploading the
same thread twice to the same knowledge base.`,
}

// --- list subcommand ---

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List imported threads",
	RunE:  runLedgerList,
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	kbID, _ := cmd.Flags().GetString("kb-id")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	led, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer led.Close()

	entries, err := led.List(context.Background(), kbID)
	if err != nil {
		return err
	}
	return formatLedgerEntries(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatLedgerEntries(w io.Writer, entries []ledger.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No imports recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-12s  %-36s  %s\n", "Knowledge base", "QA id", "Knowledge id", "Imported")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, e := range entries {
		fmt.Fprintf(w, "%-20s  %-12s  %-36s  %s\n",
			e.KnowledgeBaseID, e.QAID, e.KnowledgeID, humanize.Time(e.ImportedAt))
	}
	fmt.Fprintf(w, "\n%s entries\n", humanize.Comma(int64(len(entries))))
	return nil
}

// --- clear subcommand ---

var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget recorded imports",
	Long: `Clear deletes ledger entries for one knowledge base, or every entry when
--kb-id is omitted. It does not touch the knowledge base itself.`,
	RunE: runLedgerClear,
}

func runLedgerClear(cmd *cobra.Command, args []string) error {
	kbID, _ := cmd.Flags().GetString("kb-id")

	led, err := openLedger(cmd)
	if err != nil {
		return err
	}
	defer led.Close()

	n, err := led.Clear(context.Background(), kbID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s entries\n", humanize.Comma(n))
	return nil
}

// --- shared helpers ---

func openLedger(cmd *cobra.Command) (*ledger.Ledger, error) {
	path, _ := cmd.Flags().GetString("path")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("ledger %s does not exist", path)
	}
	return ledger.Open(types.LedgerConfig{Path: path})
}

func init() {
	ledgerCmd.PersistentFlags().String("path", ledger.DefaultPath, "ledger database path")
	ledgerCmd.PersistentFlags().String("kb-id", "", "restrict to one knowledge base")

	ledgerListCmd.Flags().Bool("json", false, "output entries as JSON")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerClearCmd)

	rootCmd.AddCommand(ledgerCmd)
}
