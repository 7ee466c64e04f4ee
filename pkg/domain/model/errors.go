package model

import "errors"

// Error categories shared by every layer. Wrap them with goerr and check with
// errors.Is.
var (
	// ErrValidation is a client input problem (empty query, bad dimension, ...)
	ErrValidation = errors.New("validation error")
	// ErrNotFound means the addressed knowledge entry does not exist
	ErrNotFound = errors.New("not found")
	// ErrTransport covers network failures, timeouts and non-2xx replies from
	// the external provider
	ErrTransport = errors.New("transport error")
	// ErrBatchMismatch means the embedding batch did not line up with its input
	ErrBatchMismatch = errors.New("embedding batch mismatch")
	// ErrTransaction means the embedding write-back was rolled back
	ErrTransaction = errors.New("transaction failed")
	// ErrSearch is a storage failure during similarity search
	ErrSearch = errors.New("search failed")
)
