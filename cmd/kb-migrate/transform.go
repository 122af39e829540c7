package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/kb-migrate/internal/records"
	"github.com/pdiddy/kb-migrate/internal/transform"
	"github.com/pdiddy/kb-migrate/pkg/types"
)

var transformCmd = &cobra.Command{
	Use:   "transform <input.json> <output.json>",
	Short: "Clean and render raw QA threads as passage records",
	Long: `Transform reads a JSON array of raw QA threads, strips HTML from every
text field, drops records without a title or description, and writes one
passage record per remaining thread. Input order is preserved.

With --filter-low-quality, threads whose agent replies are all short
acknowledgements are dropped as well.`,
	Args: cobra.ExactArgs(2),
	RunE: runTransform,
}

func init() {
	transformCmd.Flags().Bool("filter-low-quality", false, "drop threads with no substantive agent reply")
	transformCmd.Flags().String("keywords", "", "YAML file overriding the low-quality keyword lists")
	transformCmd.Flags().Int("progress", 100, "print progress every N records")

	rootCmd.AddCommand(transformCmd)
}

func runTransform(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]

	filterLow, _ := cmd.Flags().GetBool("filter-low-quality")
	keywords, _ := cmd.Flags().GetString("keywords")
	progress, _ := cmd.Flags().GetInt("progress")

	raws, err := records.LoadRaw(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Loaded %d records from %s\n", len(raws), input)

	t, err := transform.New(types.TransformConfig{
		FilterLowQuality: filterLow,
		KeywordsFile:     keywords,
		ProgressEvery:    progress,
	}, os.Stdout)
	if err != nil {
		return err
	}

	out, stats := t.TransformAll(raws)
	transform.PrintStats(os.Stdout, stats)

	if err := records.WriteJSON(output, out); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %d records to %s\n", len(out), output)
	return nil
}
