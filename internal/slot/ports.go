// Package slot defines the durable local key-value slot the expense collection is
// persisted to, and its backends.
package slot

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by Get when nothing was ever written under the key.
	ErrNotFound = errors.New("slot: key not found")
	// ErrInvalidKey is returned for empty keys or keys that cannot name a single slot.
	ErrInvalidKey = errors.New("slot: invalid key")
)

// Ports for outbound adapters.
type (
	Reader interface {
		// Get returns the bytes stored under key, or ErrNotFound.
		Get(ctx context.Context, key string) ([]byte, error)
	}

	Writer interface {
		// Put replaces whatever is stored under key.
		Put(ctx context.Context, key string, value []byte) error
	}

	Slot interface {
		Reader
		Writer
	}
)

// ValidateKey accepts non-empty keys made of letters, digits, '-', '_' and '.'.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, ".") {
		return ErrInvalidKey
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return ErrInvalidKey
		}
	}
	return nil
}
