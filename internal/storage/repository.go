// ABOUTME: KV interface for local habit persistence.
// ABOUTME: Backends store opaque whole-collection blobs under string keys.
package storage

import "errors"

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("key not found")

// KV is the local persistence contract. Each Set replaces the value for a
// key atomically; readers never observe a partial write.
// This interface allows swapping implementations (e.g., for testing).
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Keys() ([]string, error)
	Close() error
}

// Backend names accepted by the config layer.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendCharm  = "charm"
)
