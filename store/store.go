// Package store defines the key-value backend that collections are persisted
// in, and its implementations.
package store

import "errors"

var (
	// ErrInvalidKey is returned for keys the backends cannot address.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrQuotaExceeded is returned by a quota-limited store when a write
	// would push the total stored size over its limit.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Store is the interface that all backing stores must implement.
// It is a flat, process-wide mapping of string keys to opaque values,
// modelled on browser local storage.
type Store interface {
	// GetItem returns the value stored under key, or nil if there is none.
	GetItem(key string) ([]byte, error)

	// SetItem stores value under key, replacing any previous value.
	SetItem(key string, value []byte) error

	// RemoveItem deletes key. Returns true if it existed.
	RemoveItem(key string) (bool, error)

	// Keys returns every stored key in sorted order.
	Keys() ([]string, error)

	// Clear removes every key.
	Clear() error
}

func checkKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
