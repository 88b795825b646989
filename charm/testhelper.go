// ABOUTME: Test utilities for charm-backed credential stores
// ABOUTME: Swaps the charm server for an in-memory BadgerDB

package charm

import (
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// memoryKV keeps keys in an in-memory BadgerDB; Sync is a no-op.
type memoryKV struct {
	db *badger.DB
}

func (m *memoryKV) Get(key []byte) ([]byte, error) {
	var value []byte
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (m *memoryKV) Set(key, value []byte) error {
	return m.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) })
}

func (m *memoryKV) Delete(key []byte) error {
	return m.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) })
}

func (m *memoryKV) Sync() error { return nil }

// NewTestClient returns a client that never talks to a charm server.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open in-memory badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return &Client{
		kv:     &memoryKV{db: db},
		config: &Config{Host: "localhost"},
		local:  true,
	}
}
