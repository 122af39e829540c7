// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

// Filter decides whether a valid thread is worth importing. Check returns
// nil to keep the thread, an error wrapping ErrLowQuality to skip it, or any
// other error to count the thread as failed.
type Filter interface {
	Check(raw types.RawQA) error
}

// Keywords configures a KeywordFilter. It is the schema of the optional
// keywords YAML file:
//
//	technical: [api, sdk, certificate]
//	low_value: [please wait, contact support]
type Keywords struct {
	// Technical terms; an agent reply that mentions one is never low quality.
	Technical []string `yaml:"technical"`

	// LowValue phrases that carry no answer on their own.
	LowValue []string `yaml:"low_value"`
}

// DefaultKeywords returns the built-in keyword lists.
func DefaultKeywords() Keywords {
	return Keywords{
		Technical: []string{
			"api", "sdk", "token", "config", "setting", "parameter", "code",
			"script", "command", "error", "exception", "fail", "log", "http",
			"bucket", "storage", "upload", "download", "file", "domain", "dns",
			"cdn", "ssl", "certificate", "callback", "cache", "refresh",
			"permission", "auth", "key", "signature", "timeout", "bandwidth",
			"version", "format", "request", "response", "invoice", "billing",
		},
		LowValue: []string{
			"please wait", "processing", "handled", "done", "ok", "okay",
			"contact support", "check again", "provide", "thanks", "resolved",
		},
	}
}

// LoadKeywords reads a keywords YAML file and merges it over
// DefaultKeywords. An empty path returns the defaults.
func LoadKeywords(path string) (Keywords, error) {
	kw := DefaultKeywords()
	if path == "" {
		return kw, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("reading keywords file %s: %w", path, err)
	}
	var extra Keywords
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return Keywords{}, fmt.Errorf("parsing keywords file %s: %w", path, err)
	}

	kw.Technical = append(kw.Technical, extra.Technical...)
	kw.LowValue = append(kw.LowValue, extra.LowValue...)
	return kw, nil
}

const (
	maxShortAgentReplies = 2
	maxShortReplyRunes   = 10
)

// KeywordFilter rejects threads whose agent side carries no usable answer:
// threads with no agent reply at all, and threads whose few agent replies
// are short, non-technical and made of low-value phrases only.
type KeywordFilter struct {
	technical []string
	lowValue  []string
}

// NewKeywordFilter builds a filter from keyword lists. Matching is
// case-insensitive.
func NewKeywordFilter(kw Keywords) *KeywordFilter {
	return &KeywordFilter{
		technical: lowerAll(kw.Technical),
		lowValue:  lowerAll(kw.LowValue),
	}
}

// Check implements Filter.
func (f *KeywordFilter) Check(raw types.RawQA) error {
	var agent []string
	for _, r := range raw.Replies {
		if r.IsCustomer() {
			continue
		}
		if text := strings.ToLower(Clean(r.Content)); text != "" {
			agent = append(agent, text)
		}
	}

	if len(agent) == 0 {
		return fmt.Errorf("%w: no agent reply", ErrLowQuality)
	}
	if len(agent) > maxShortAgentReplies {
		return nil
	}
	for _, text := range agent {
		if len([]rune(text)) > maxShortReplyRunes {
			return nil
		}
	}
	for _, text := range agent {
		if containsAny(text, f.technical) {
			return nil
		}
	}
	for _, text := range agent {
		if !containsAny(text, f.lowValue) {
			return nil
		}
	}
	return fmt.Errorf("%w: only short low-value agent replies", ErrLowQuality)
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
