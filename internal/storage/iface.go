package storage

import "errors"

var (
	// ErrUnavailable is returned when the medium cannot be accessed at all.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded is returned when a write would exceed the medium's capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Store is a durable string-keyed namespace of raw values. It is the only
// thing the higher layers know about persistence.
type Store interface {
	// Get returns the value under key. found is false when the key is absent.
	Get(key string) (value []byte, found bool, err error)
	Put(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Clear wipes every key in the namespace.
	Clear() error
	// Keys lists every key currently stored.
	Keys() ([]string, error)
	Close() error
}
