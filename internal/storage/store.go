// Package storage owns the ledger's persisted collections: categories,
// transactions and recurring templates. Every read-modify-write goes
// through Store.Update, which loads and commits all touched collections
// inside a single kv.Store.Update transaction.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/kv"
)

// Persisted keys. Compatible with the browser build's localStorage layout.
const (
	CategoriesKey   = "finance_categories"
	TransactionsKey = "finance_transactions"
	RecurringKey    = "finance_recurring"
)

// Store is the ledger engine over a kv.Store.
type Store struct {
	kv     kv.Store
	mu     sync.Mutex
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type Option func(*Store)

// WithClock overrides the time source used for createdAt and lastGenerated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(store kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current time.
func (s *Store) Now() time.Time { return s.now() }

// NewID returns a fresh identifier.
func (s *Store) NewID() string { return s.newID() }

// Close closes the underlying kv store.
func (s *Store) Close() error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Close()
}

// State is the loaded view of all three collections. Mutations must call
// Touch for each collection they change; untouched collections are not
// written back.
type State struct {
	Categories   []core.Category
	Transactions []core.Transaction
	Recurring    []core.RecurringTemplate

	stored map[string]bool
	dirty  map[string]bool
}

// Touch marks collections as changed.
func (st *State) Touch(keys ...string) {
	for _, k := range keys {
		st.dirty[k] = true
	}
}

// Stored reports whether a collection was present in the kv store.
func (st *State) Stored(key string) bool {
	return st.stored[key]
}

// View loads a consistent snapshot and passes it to fn. Changes made by fn
// are discarded.
func (s *Store) View(ctx context.Context, fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.Update(ctx, func(txn kv.Txn) error {
		st, err := load(txn)
		if err != nil {
			return err
		}
		return fn(st)
	})
}

// Update loads the current state, runs fn and commits every touched
// collection atomically. The load and the commit happen inside one
// kv.Store.Update, so a writer in another process cannot commit in between.
// Nothing is written when fn returns an error or touches nothing.
func (s *Store) Update(ctx context.Context, fn func(*State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st *State
	err := s.kv.Update(ctx, func(txn kv.Txn) error {
		var err error
		if st, err = load(txn); err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		return stage(txn, st)
	})
	if err != nil {
		return err
	}
	for key := range st.dirty {
		st.stored[key] = true
	}
	st.dirty = make(map[string]bool, 3)
	return nil
}

func load(txn kv.Txn) (*State, error) {
	st := &State{
		stored: make(map[string]bool, 3),
		dirty:  make(map[string]bool, 3),
	}

	var err error
	if st.stored[CategoriesKey], err = read(txn, CategoriesKey, &st.Categories); err != nil {
		return nil, err
	}
	if !st.stored[CategoriesKey] {
		st.Categories = DefaultCategories()
	}
	if st.stored[TransactionsKey], err = read(txn, TransactionsKey, &st.Transactions); err != nil {
		return nil, err
	}
	if st.stored[RecurringKey], err = read(txn, RecurringKey, &st.Recurring); err != nil {
		return nil, err
	}

	if st.Categories == nil {
		st.Categories = []core.Category{}
	}
	if st.Transactions == nil {
		st.Transactions = []core.Transaction{}
	}
	if st.Recurring == nil {
		st.Recurring = []core.RecurringTemplate{}
	}
	return st, nil
}

func read(txn kv.Txn, key string, dst any) (bool, error) {
	raw, found, err := txn.Get(key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// stage encodes every touched collection into txn.
func stage(txn kv.Txn, st *State) error {
	for key := range st.dirty {
		var v any
		switch key {
		case CategoriesKey:
			v = st.Categories
		case TransactionsKey:
			v = st.Transactions
		case RecurringKey:
			v = st.Recurring
		default:
			return fmt.Errorf("unknown collection %q", key)
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		txn.Set(key, raw)
	}
	return nil
}
