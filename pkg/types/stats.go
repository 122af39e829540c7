// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TransformStats holds counts from one batch transform.
type TransformStats struct {
	Total      int `json:"total" yaml:"total"`
	Success    int `json:"success" yaml:"success"`
	Failed     int `json:"failed" yaml:"failed"`
	Skipped    int `json:"skipped" yaml:"skipped"`
	LowQuality int `json:"low_quality" yaml:"low_quality"`
}

// ImportStats holds counts from one import run. Total is the length of the
// whole record list, not the resumed tail, so rates are always computed
// against the full list.
type ImportStats struct {
	Total   int `json:"total" yaml:"total"`
	Success int `json:"success" yaml:"success"`
	Failed  int `json:"failed" yaml:"failed"`
	Skipped int `json:"skipped" yaml:"skipped"`
}

// SuccessRate returns Success as a percentage of Total. A zero Total yields 0.
func (s ImportStats) SuccessRate() float64 {
	total := s.Total
	if total < 1 {
		total = 1
	}
	return float64(s.Success) / float64(total) * 100
}

// FailedRecord identifies a record that could not be imported, with enough
// context to retry it by hand.
type FailedRecord struct {
	// Index is the 0-based position in the transformed record list.
	Index int `json:"index" yaml:"index"`

	// QAID comes from the record metadata, or is the 1-based position when
	// the metadata carries no id.
	QAID string `json:"qa_id" yaml:"qa_id"`

	// Title is truncated to 50 characters.
	Title string `json:"title" yaml:"title"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunSummary describes one import run. It is written as YAML when the
// importer is given a summary path.
type RunSummary struct {
	Input           string        `json:"input" yaml:"input"`
	KnowledgeBaseID string        `json:"knowledge_base_id" yaml:"knowledge_base_id"`
	StartIndex      int           `json:"start_index" yaml:"start_index"`
	NextIndex       int           `json:"next_index" yaml:"next_index"`
	Stats           ImportStats   `json:"stats" yaml:"stats"`
	SuccessRate     float64       `json:"success_rate" yaml:"success_rate"`
	Elapsed         time.Duration `json:"elapsed" yaml:"elapsed"`
	FailureLog      string        `json:"failure_log,omitempty" yaml:"failure_log,omitempty"`
	Interrupted     bool          `json:"interrupted" yaml:"interrupted"`
	LimitReached    bool          `json:"limit_reached" yaml:"limit_reached"`
	FinishedAt      time.Time     `json:"finished_at" yaml:"finished_at"`
}
