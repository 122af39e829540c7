// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records and settings shared by the transform
// and import stages.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OwnerCustomer is the Reply.Owner value that marks a customer message.
// Any other owner is treated as a support agent.
const OwnerCustomer = "customer"

// SourceHistoricalQA is the Metadata.Source value stamped on every
// transformed record.
const SourceHistoricalQA = "historical_qa"

// QAID is a Q&A thread identifier. Exports carry it either as a JSON number
// or a JSON string; both decode to the same text form.
type QAID string

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *QAID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = QAID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("qa id must be a string or number: %w", err)
	}
	*id = QAID(n.String())
	return nil
}

// Reply is one message in a support thread.
type Reply struct {
	// Owner is "customer" for the customer; anything else is an agent.
	Owner string `json:"owner" yaml:"owner"`

	// Content is the message body as HTML.
	Content string `json:"content" yaml:"content"`
}

// IsCustomer reports whether the reply was written by the customer.
func (r Reply) IsCustomer() bool {
	return r.Owner == OwnerCustomer
}

// RawQA is a historical Q&A thread as exported from the support system.
type RawQA struct {
	ID          QAID    `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Category    string  `json:"category" yaml:"category"`
	Replies     []Reply `json:"replies" yaml:"replies"`
}

// Metadata is attached to every passage submitted to the knowledge base.
type Metadata struct {
	// QAID is the source thread identifier.
	QAID string `json:"qa_id" yaml:"qa_id"`

	// Category is the thread category, "uncategorized" when absent.
	Category string `json:"category" yaml:"category"`

	// Source is always SourceHistoricalQA.
	Source string `json:"source" yaml:"source"`

	// ImportDate is the transform date formatted as YYYY-MM-DD.
	ImportDate string `json:"import_date" yaml:"import_date"`

	// ReplyCount counts every reply in the source thread, including replies
	// whose content cleaned to nothing and so were left out of the passage.
	ReplyCount int `json:"reply_count" yaml:"reply_count"`
}

// TransformedRecord is one passage ready for import.
type TransformedRecord struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Passage     string   `json:"passage" yaml:"passage"`
	Metadata    Metadata `json:"metadata" yaml:"metadata"`
}
