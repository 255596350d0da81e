// Package store implements C2: consume Raw Page Messages, extract and hash
// their content, and upsert deduplicated Article Records into the document
// store.
package store

import "errors"

// Sentinel errors for the store use case.
var (
	// ErrMalformedMessage indicates the queue delivery could not be decoded
	// into a Raw Page Message; §7's poison-message policy applies.
	ErrMalformedMessage = errors.New("malformed raw page message")
)
