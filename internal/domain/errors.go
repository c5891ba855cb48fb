package domain

import "errors"

var (
	// ErrStoreCorrupt marks a ledger file that exists but does not match the
	// expected schema. Not retryable without manual repair.
	ErrStoreCorrupt = errors.New("ledger corrupt")
	// ErrStoreWrite marks a failed durable write. Retryable on the next run;
	// callers must discard in-memory state and re-load from disk.
	ErrStoreWrite = errors.New("ledger write failed")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
