// ABOUTME: Charm KV store for habit persistence with Charm Cloud backup.
// ABOUTME: Wraps charm/kv; writes sync automatically unless disabled.
package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

const (
	charmDBName = "habits"
	// DefaultCharmHost is the Charm server used when CHARM_HOST is unset.
	DefaultCharmHost = "charm.2389.dev"
)

// ErrReadOnly is returned for writes when another process holds the lock.
var ErrReadOnly = errors.New("cannot write: database is locked by another process")

// CharmStore is a KV backed by Charm's encrypted, cloud-synced KV.
type CharmStore struct {
	kv       *kv.KV
	autoSync bool
	mu       sync.RWMutex
}

var _ KV = (*CharmStore)(nil)

// OpenCharm opens the habits Charm KV database and pulls remote state.
func OpenCharm(autoSync bool) (*CharmStore, error) {
	if os.Getenv("CHARM_HOST") == "" {
		if err := os.Setenv("CHARM_HOST", DefaultCharmHost); err != nil {
			return nil, err
		}
	}

	db, err := kv.OpenWithDefaultsFallback(charmDBName)
	if err != nil {
		return nil, fmt.Errorf("open charm kv: %w", err)
	}

	s := &CharmStore{kv: db, autoSync: autoSync}

	// Pull remote data on startup (skip in read-only mode)
	if !db.IsReadOnly() {
		_ = db.Sync()
	}
	return s, nil
}

// IsReadOnly returns true if the database is open in read-only mode.
func (s *CharmStore) IsReadOnly() bool {
	return s.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (s *CharmStore) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.kv.IsReadOnly() {
		return nil
	}
	return s.kv.Sync()
}

// Get returns the value stored under key.
func (s *CharmStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key and syncs if auto-sync is enabled.
func (s *CharmStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kv.IsReadOnly() {
		return ErrReadOnly
	}
	if err := s.kv.Set([]byte(key), value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if s.autoSync {
		_ = s.kv.Sync()
	}
	return nil
}

// Keys lists all stored keys.
func (s *CharmStore) Keys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := s.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, string(k))
	}
	return keys, nil
}

// Close closes the KV database connection.
func (s *CharmStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv != nil {
		return s.kv.Close()
	}
	return nil
}
