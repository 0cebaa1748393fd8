package storage

import (
	"context"

	"fintrack/internal/core"
)

// Seed persists the default categories when none are stored yet. It is
// idempotent and reports whether anything was written.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	seeded := false
	err := s.Update(ctx, func(st *State) error {
		if st.Stored(CategoriesKey) {
			return nil
		}
		st.Categories = DefaultCategories()
		st.Touch(CategoriesKey)
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		s.logger.InfoContext(ctx, "Seeded default categories", "count", len(defaultCategories))
	}
	return seeded, nil
}

// SeedDemo writes four sample transactions when the transaction collection
// has never been written.
func (s *Store) SeedDemo(ctx context.Context) (bool, error) {
	demo := []core.Transaction{
		{Date: core.NewDate(2023, 10, 1), Amount: 3500, Type: core.Income, Category: "Salary", Description: "Monthly Salary"},
		{Date: core.NewDate(2023, 10, 5), Amount: 1200, Type: core.Expense, Category: "Housing", Description: "Rent"},
		{Date: core.NewDate(2023, 10, 7), Amount: 150, Type: core.Expense, Category: "Food", Description: "Groceries"},
		{Date: core.NewDate(2023, 10, 10), Amount: 60, Type: core.Expense, Category: "Utilities", Description: "Electric Bill"},
	}

	seeded := false
	err := s.Update(ctx, func(st *State) error {
		if st.Stored(TransactionsKey) {
			return nil
		}
		now := s.now()
		for i := range demo {
			demo[i].ID = s.newID()
			demo[i].CreatedAt = now
		}
		st.Transactions = demo
		st.Touch(TransactionsKey)
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		s.logger.InfoContext(ctx, "Seeded demo transactions", "count", len(demo))
	}
	return seeded, nil
}
