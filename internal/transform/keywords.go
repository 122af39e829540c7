// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

// DefaultMinFrequency is the fewest occurrences a term needs to be kept.
const DefaultMinFrequency = 2

// Keyword categories.
const (
	CategoryAPI     = "api"
	CategoryStorage = "storage"
	CategoryNetwork = "network"
	CategoryError   = "error"
	CategoryConfig  = "config"
	CategoryOther   = "other"
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}_\-.]*`)

// categoryTerms is checked in order; the first category with a matching
// term wins.
var categoryTerms = []struct {
	category string
	terms    []string
}{
	{CategoryAPI, []string{"api", "sdk", "token", "request", "callback"}},
	{CategoryStorage, []string{"bucket", "storage", "upload", "download", "file"}},
	{CategoryNetwork, []string{"domain", "dns", "ssl", "cdn", "http", "certificate"}},
	{CategoryError, []string{"error", "exception", "fail", "timeout"}},
	{CategoryConfig, []string{"config", "setting", "parameter", "option"}},
}

var stopWords = toSet(
	"a", "about", "after", "again", "all", "also", "am", "an", "and", "any",
	"are", "as", "at", "be", "been", "but", "by", "can", "check", "could",
	"dear", "did", "do", "does", "done", "for", "from", "get", "got", "had",
	"has", "have", "hello", "help", "here", "hi", "how", "if", "in", "into",
	"is", "it", "its", "just", "know", "let", "may", "me", "more", "my",
	"no", "not", "now", "of", "ok", "okay", "on", "or", "our", "out",
	"please", "see", "should", "so", "sorry", "sure", "thank", "thanks",
	"that", "the", "them", "then", "there", "they", "this", "to", "up",
	"us", "was", "we", "were", "what", "when", "which", "will", "with",
	"would", "yes", "you", "your",
)

// KeywordCount is one extracted term.
type KeywordCount struct {
	Keyword   string `json:"keyword" yaml:"keyword"`
	Frequency int    `json:"frequency" yaml:"frequency"`
	Category  string `json:"category" yaml:"category"`
}

// KeywordReport is the keywords file written by WriteKeywords. Its
// technical list is what LoadKeywords reads; counts is for people.
type KeywordReport struct {
	Technical []string       `yaml:"technical"`
	Counts    []KeywordCount `yaml:"counts"`
}

// ExtractKeywords counts candidate technical terms in the agent replies of
// raws and returns those seen at least minFreq times, most frequent first.
// A term is dropped when a longer kept term contains it.
func ExtractKeywords(raws []types.RawQA, minFreq int) []KeywordCount {
	if minFreq <= 0 {
		minFreq = DefaultMinFrequency
	}
	technical := DefaultKeywords().Technical

	freq := make(map[string]int)
	for _, raw := range raws {
		for _, r := range raw.Replies {
			if r.IsCustomer() {
				continue
			}
			for _, tok := range tokenRe.FindAllString(strings.ToLower(Clean(r.Content)), -1) {
				tok = strings.TrimRight(tok, "-_.")
				if isCandidate(tok, technical) {
					freq[tok]++
				}
			}
		}
	}

	var kept []KeywordCount
	for kw, n := range freq {
		if n >= minFreq {
			kept = append(kept, KeywordCount{Keyword: kw, Frequency: n, Category: categorize(kw)})
		}
	}
	kept = dropContained(kept)

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Frequency != kept[j].Frequency {
			return kept[i].Frequency > kept[j].Frequency
		}
		return kept[i].Keyword < kept[j].Keyword
	})
	return kept
}

// isCandidate keeps Latin-script words that are not stop words, tokens of
// three or more runes that include a digit, and anything naming a known
// technical term.
func isCandidate(tok string, technical []string) bool {
	if len([]rune(tok)) < 2 || stopWords[tok] {
		return false
	}
	var latin, digit bool
	for _, r := range tok {
		if r < unicode.MaxLatin1 && unicode.IsLetter(r) {
			latin = true
		}
		if unicode.IsDigit(r) {
			digit = true
		}
	}
	if latin || (digit && len([]rune(tok)) >= 3) {
		return true
	}
	return containsAny(tok, technical)
}

func categorize(kw string) string {
	for _, c := range categoryTerms {
		if containsAny(kw, c.terms) {
			return c.category
		}
	}
	return CategoryOther
}

// dropContained removes every keyword that is a substring of a longer one.
func dropContained(in []KeywordCount) []KeywordCount {
	out := make([]KeywordCount, 0, len(in))
	for _, kw := range in {
		contained := false
		for _, other := range in {
			if len(other.Keyword) > len(kw.Keyword) && strings.Contains(other.Keyword, kw.Keyword) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, kw)
		}
	}
	return out
}

// WriteKeywords writes keywords as a file LoadKeywords can read.
func WriteKeywords(path string, keywords []KeywordCount) error {
	report := KeywordReport{
		Technical: make([]string, 0, len(keywords)),
		Counts:    keywords,
	}
	for _, kw := range keywords {
		report.Technical = append(report.Technical, kw.Keyword)
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("marshaling keywords: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing keywords file %s: %w", path, err)
	}
	return nil
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
