// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import "errors"

// Batch-level errors. Per-item failures never surface here; they are
// recorded on the item's citation.
var (
	// ErrEmptyBatch rejects a batch with no PDFs, DOIs, or URLs.
	ErrEmptyBatch = errors.New("no PDFs, DOIs, or URLs provided")

	// ErrTimeout reports a batch that exceeded its deadline. No partial
	// response accompanies it.
	ErrTimeout = errors.New("batch processing timed out")
)
