// Package kv provides the blob store that holds the ledger's persisted
// collections. Values are opaque bytes keyed by string.
package kv

import "context"

// Store is a persistent string-keyed blob store.
//
// Get reports found=false for an absent key; that is never an error.
// SetMany commits every entry or none of them.
//
// Update runs a read-modify-write: fn reads through the Txn and stages
// writes with Txn.Set; the staged writes are committed together only if fn
// returns nil. No other Update or SetMany on the same data, in this process
// or another one sharing the database, commits between fn's first read and
// the commit.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, entries map[string][]byte) error
	Update(ctx context.Context, fn func(Txn) error) error
	Close() error
}

// Txn is the view of the store inside Update. Get sees values staged by
// Set earlier in the same Update.
type Txn interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte)
}
