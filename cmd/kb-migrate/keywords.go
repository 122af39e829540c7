package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/kb-migrate/internal/records"
	"github.com/pdiddy/kb-migrate/internal/transform"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords <input.json> <keywords.yaml>",
	Short: "Extract technical keywords from agent replies",
	Long: `Keywords reads the same raw QA export as transform, counts candidate
technical terms in agent replies, and writes the frequent ones as a YAML
keywords file. Pass that file to transform --keywords to extend the
low-quality filter with the vocabulary of your own support history.`,
	Args: cobra.ExactArgs(2),
	RunE: runKeywords,
}

func init() {
	keywordsCmd.Flags().Int("min-freq", transform.DefaultMinFrequency, "keep terms seen at least this many times")
	keywordsCmd.Flags().Int("top", 50, "number of keywords to list")

	rootCmd.AddCommand(keywordsCmd)
}

func runKeywords(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]
	minFreq, _ := cmd.Flags().GetInt("min-freq")
	top, _ := cmd.Flags().GetInt("top")

	raws, err := records.LoadRaw(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Loaded %d records from %s\n", len(raws), input)

	keywords := transform.ExtractKeywords(raws, minFreq)
	printKeywords(os.Stdout, keywords, top)

	if err := transform.WriteKeywords(output, keywords); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Wrote %d keywords to %s\n", len(keywords), output)
	return nil
}

func printKeywords(w io.Writer, keywords []transform.KeywordCount, top int) {
	byCategory := make(map[string]int)
	for _, kw := range keywords {
		byCategory[kw.Category]++
	}

	fmt.Fprintf(w, "\n%s keywords\n", humanize.Comma(int64(len(keywords))))
	for _, c := range []string{
		transform.CategoryAPI, transform.CategoryStorage, transform.CategoryNetwork,
		transform.CategoryError, transform.CategoryConfig, transform.CategoryOther,
	} {
		if n := byCategory[c]; n > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", c, n)
		}
	}
	if len(keywords) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%-30s  %-9s  %s\n", "Keyword", "Frequency", "Category")
	fmt.Fprintln(w, strings.Repeat("-", 55))
	for i, kw := range keywords {
		if top > 0 && i >= top {
			fmt.Fprintf(w, "... and %d more\n", len(keywords)-top)
			break
		}
		fmt.Fprintf(w, "%-30s  %-9d  %s\n", kw.Keyword, kw.Frequency, kw.Category)
	}
}
