// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records reads and writes the JSON files that connect the
// pipeline stages: raw thread exports, transformed records, and failure
// logs. Load errors are classified so the CLI can report them as fatal.
package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/pdiddy/kb-migrate/pkg/types"
)

var (
	// ErrInputNotFound is returned when an input file does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrMalformedJSON is returned when an input file is not a valid JSON array.
	ErrMalformedJSON = errors.New("malformed JSON")
)

// LoadRaw reads a JSON array of raw Q&A threads.
func LoadRaw(path string) ([]types.RawQA, error) {
	var out []types.RawQA
	if err := loadArray(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTransformed reads a JSON array of transformed records.
func LoadTransformed(path string) ([]types.TransformedRecord, error) {
	var out []types.TransformedRecord
	if err := loadArray(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFailures reads a failure log written by WriteJSON.
func LoadFailures(path string) ([]types.FailedRecord, error) {
	var out []types.FailedRecord
	if err := loadArray(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func loadArray(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: %s is not valid JSON", ErrMalformedJSON, path)
	}
	if !gjson.ParseBytes(data).IsArray() {
		return fmt.Errorf("%w: %s must contain a JSON array", ErrMalformedJSON, path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedJSON, path, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON. The file is written to a temporary
// sibling first and renamed into place, so readers never see a partial file.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".records-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
