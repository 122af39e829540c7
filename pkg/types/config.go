package types

import "time"

// HTTPConfig holds HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "kb-migrate/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// TransformConfig holds settings for the transform stage.
type TransformConfig struct {
	// FilterLowQuality enables the low-quality thread filter.
	FilterLowQuality bool `json:"filter_low_quality" yaml:"filter_low_quality"`

	// KeywordsFile is an optional YAML file of technical keywords and
	// low-value phrases merged over the built-in defaults.
	KeywordsFile string `json:"keywords_file,omitempty" yaml:"keywords_file,omitempty"`

	// ProgressEvery prints a progress line every N records (default 100).
	ProgressEvery int `json:"progress_every" yaml:"progress_every"`
}

// ImportConfig holds settings for the import stage.
type ImportConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIURL is the knowledge-base service base URL (e.g. "http://localhost:8080").
	APIURL string `json:"api_url" yaml:"api_url"`

	// Token is the bearer credential sent with every request.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// KnowledgeBaseID selects the target knowledge base.
	KnowledgeBaseID string `json:"kb_id" yaml:"kb_id"`

	// BatchSize is the number of records between batch pauses (default 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RecordDelay is the pause after every record (default 100ms).
	RecordDelay time.Duration `json:"record_delay" yaml:"record_delay"`

	// BatchDelay is the extra pause after every BatchSize-th record (default 500ms).
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay"`

	// MaxImports stops the run after this many successful uploads (0 = no limit).
	MaxImports int `json:"max_imports" yaml:"max_imports"`

	// SkipExisting skips records whose QA id is already in the ledger.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing"`
}

// LedgerConfig holds settings for the local import ledger.
type LedgerConfig struct {
	// Path is the SQLite database file (default "kb-migrate.db").
	Path string `json:"path" yaml:"path"`
}
