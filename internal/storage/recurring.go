package storage

import (
	"context"
	"fmt"
	"slices"

	"fintrack/internal/core"
)

// ListRecurring returns the templates in stored order.
func (s *Store) ListRecurring(ctx context.Context) ([]core.RecurringTemplate, error) {
	var out []core.RecurringTemplate
	err := s.View(ctx, func(st *State) error {
		out = slices.Clone(st.Recurring)
		return nil
	})
	return out, err
}

// AddRecurring appends a template that is considered generated as of now.
// DayOfMonth defaults to today's day.
func (s *Store) AddRecurring(ctx context.Context, tpl core.RecurringTemplate) (core.RecurringTemplate, error) {
	now := s.now()
	tpl.ID = s.newID()
	tpl.LastGenerated = now
	if tpl.DayOfMonth == 0 {
		tpl.DayOfMonth = now.UTC().Day()
	}
	if err := tpl.Validate(); err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("add recurring: %w", err)
	}

	err := s.Update(ctx, func(st *State) error {
		st.Recurring = append(st.Recurring, tpl)
		st.Touch(RecurringKey)
		return nil
	})
	if err != nil {
		return core.RecurringTemplate{}, err
	}

	s.logger.InfoContext(ctx, "Recurring template added",
		"id", tpl.ID,
		"category", tpl.Category,
		"day_of_month", tpl.DayOfMonth)
	return tpl, nil
}

// AddRepeatingTransaction records tx and a monthly template built from it
// in one commit. The template's first occurrence is one month from now.
func (s *Store) AddRepeatingTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, core.RecurringTemplate, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, core.RecurringTemplate{}, fmt.Errorf("add transaction: %w", err)
	}
	now := s.now()
	tx.ID = s.newID()
	tx.CreatedAt = now

	tpl := core.FromTransaction(tx, now)
	tpl.ID = s.newID()
	if err := tpl.Validate(); err != nil {
		return core.Transaction{}, core.RecurringTemplate{}, fmt.Errorf("add recurring: %w", err)
	}

	err := s.Update(ctx, func(st *State) error {
		st.Transactions = slices.Insert(st.Transactions, 0, tx)
		st.Recurring = append(st.Recurring, tpl)
		st.Touch(TransactionsKey, RecurringKey)
		return nil
	})
	if err != nil {
		return core.Transaction{}, core.RecurringTemplate{}, err
	}

	s.logger.InfoContext(ctx, "Repeating transaction added",
		"id", tx.ID,
		"recurring_id", tpl.ID,
		"amount", tx.Amount,
		"category", tx.Category)
	return tx, tpl, nil
}
