// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import "errors"

var (
	// ErrInvalidRecord marks a thread without a title or description, without
	// replies, or whose replies are all empty after cleaning. Such threads are
	// skipped, not counted as failures.
	ErrInvalidRecord = errors.New("invalid record: no title/description or no reply content")

	// ErrLowQuality marks a thread rejected by the low-quality filter.
	ErrLowQuality = errors.New("low-quality thread")
)
