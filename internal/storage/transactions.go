package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"fintrack/internal/core"
)

// SortByDateDesc orders transactions newest first. Equal dates keep their
// relative order.
func SortByDateDesc(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[j].Date.Before(txs[i].Date)
	})
}

// ListTransactions returns all transactions, newest date first.
func (s *Store) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.View(ctx, func(st *State) error {
		out = slices.Clone(st.Transactions)
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortByDateDesc(out)
	return out, nil
}

// AddTransaction assigns an id and createdAt and prepends tx to the ledger.
func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	tx.ID = s.newID()
	tx.CreatedAt = s.now()

	err := s.Update(ctx, func(st *State) error {
		st.Transactions = slices.Insert(st.Transactions, 0, tx)
		st.Touch(TransactionsKey)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction added",
		"id", tx.ID,
		"type", tx.Type,
		"amount", tx.Amount,
		"category", tx.Category,
		"date", tx.Date.String())
	return tx, nil
}

// UpdateTransaction replaces the transaction with the same id. The stored
// createdAt is kept. Unknown ids are ignored. A stored description already
// over core.MaxDescription (an imported record) may be kept unchanged.
func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	longDescription := false
	if err := tx.Validate(); errors.Is(err, core.ErrDescriptionLong) {
		longDescription = true
	} else if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return s.Update(ctx, func(st *State) error {
		i := indexTransaction(st.Transactions, tx.ID)
		if i < 0 {
			return nil
		}
		if longDescription && st.Transactions[i].Description != tx.Description {
			return fmt.Errorf("update transaction: %w", core.ErrDescriptionLong)
		}
		tx.CreatedAt = st.Transactions[i].CreatedAt
		st.Transactions[i] = tx
		st.Touch(TransactionsKey)
		return nil
	})
}

// DeleteTransaction removes a transaction. Unknown ids are ignored.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.Update(ctx, func(st *State) error {
		i := indexTransaction(st.Transactions, id)
		if i < 0 {
			return nil
		}
		st.Transactions = slices.Delete(st.Transactions, i, i+1)
		st.Touch(TransactionsKey)
		return nil
	})
}

func indexTransaction(txs []core.Transaction, id string) int {
	return slices.IndexFunc(txs, func(t core.Transaction) bool { return t.ID == id })
}
