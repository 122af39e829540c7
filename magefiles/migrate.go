//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Migrate groups the migration targets.
type Migrate mg.Namespace

const (
	defaultRaw         = "data/raw/qa_export.json"
	defaultTransformed = "data/transformed/qa_passages.json"
	defaultFailedLog   = "data/logs/failed_imports.json"
	defaultKeywords    = "data/keywords.yaml"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Keywords extracts technical keywords from the raw export (RAW) into
// KEYWORDS, for use by Transform.
func (Migrate) Keywords() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "keywords", envOr("RAW", defaultRaw), envOr("KEYWORDS", defaultKeywords))
}

// Transform renders the raw export (RAW) into passage records (OUT).
// Set FILTER=1 to drop low-quality threads, extended by KEYWORDS when that
// file exists.
func (Migrate) Transform() error {
	mg.Deps(Build)
	args := []string{"transform", envOr("RAW", defaultRaw), envOr("OUT", defaultTransformed)}
	if os.Getenv("FILTER") != "" {
		args = append(args, "--filter-low-quality")
		if kw := envOr("KEYWORDS", defaultKeywords); fileExists(kw) {
			args = append(args, "--keywords", kw)
		}
	}
	return sh.RunV(binPath(), args...)
}

// Import uploads the passage records (OUT). Connection settings come from
// KB_MIGRATE_API_URL, KB_MIGRATE_KB_ID and .secrets/kb-api-token. Set
// START to resume from an index.
func (Migrate) Import() error {
	mg.Deps(Build)
	args := []string{
		"import", envOr("OUT", defaultTransformed),
		"--failed-log", envOr("FAILED_LOG", defaultFailedLog),
		"--skip-existing",
	}
	if start := os.Getenv("START"); start != "" {
		args = append(args, "--start-index", start)
	}
	ran, err := sh.Exec(nil, os.Stdout, os.Stderr, binPath(), args...)
	if !ran {
		return fmt.Errorf("running %s: %w", binPath(), err)
	}
	return err
}

// All runs Transform then Import.
func (Migrate) All() {
	mg.SerialDeps(Migrate{}.Transform, Migrate{}.Import)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
