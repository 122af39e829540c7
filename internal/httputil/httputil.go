// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for talking to the knowledge-base
// service.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxErrorBody caps how much of an error response body is kept for
// messages and failure logs.
const MaxErrorBody = 200

// DefaultTimeout is used when a zero timeout is configured.
const DefaultTimeout = 30 * time.Second

// NewClient returns an http.Client with the given timeout, or
// DefaultTimeout when timeout is zero.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// NewJSONRequest builds a request whose body is v encoded as JSON. A
// non-empty token is sent as a bearer credential; a non-empty userAgent
// sets the User-Agent header.
func NewJSONRequest(ctx context.Context, method, url string, v any, token, userAgent string) (*http.Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

// ErrorBody reads at most MaxErrorBody bytes of resp.Body and drains the
// rest so the connection can be reused.
func ErrorBody(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBody))
	io.Copy(io.Discard, resp.Body)
	return strings.TrimSpace(string(data))
}
