// Package kv defines the string-valued key-value store that session records
// are persisted to, plus in-memory and JSON-file implementations. SQLite and
// Redis backends live in the sqlitekv and rediskv subpackages.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("kv: not found")

// Store is a string-valued key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by stores holding external resources.
type Closer interface {
	Close() error
}

// Close closes s if it implements Closer.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}

	return nil
}
