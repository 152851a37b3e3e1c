// Package cache provides a persistent transcript cache backed by Badger.
//
// Recordings are keyed by a hash of their encoded WAV bytes: dictating the
// exact same audio twice (a retried hotkey session, a test fixture) skips
// the transcription round-trip entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DefaultTTL is how long cached transcripts are kept.
const DefaultTTL = 30 * 24 * time.Hour

// Entry is one cached transcription result.
type Entry struct {
	Text      string    `json:"text"`
	Engine    string    `json:"engine"`
	CreatedAt time.Time `json:"created_at"`
}

// Cache is a Badger-backed transcript store.
type Cache struct {
	db *badger.DB
}

// New opens (or creates) a cache at the given directory.
func New(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Cache{db: db}, nil
}

// Key derives the cache key for an encoded WAV container.
func Key(wavBytes []byte) string {
	sum := sha256.Sum256(wavBytes)
	return "transcript:" + hex.EncodeToString(sum[:])
}

// Get returns the cached entry for key, if present and not expired.
func (c *Cache) Get(key string) (*Entry, bool) {
	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		// Missing and corrupt entries are both misses.
		if !errors.Is(err, badger.ErrKeyNotFound) {
			slog.Debug("cache read", "error", err)
		}
		return nil, false
	}
	return &entry, true
}

// Set stores an entry under key with the given TTL.
func (c *Cache) Set(key string, entry *Entry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data).WithTTL(ttl)
		return txn.SetEntry(e)
	})
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
