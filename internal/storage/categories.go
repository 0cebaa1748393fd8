package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"fintrack/internal/core"
)

var defaultCategories = []core.Category{
	{ID: "c1", Name: "Housing", Type: core.Expense, System: true},
	{ID: "c2", Name: "Utilities", Type: core.Expense, System: true},
	{ID: "c3", Name: "Food", Type: core.Expense, System: true},
	{ID: "c4", Name: "Entertainment", Type: core.Expense, System: true},
	{ID: "c5", Name: "Healthcare", Type: core.Expense, System: true},
	{ID: "c6", Name: "Personal", Type: core.Expense, System: true},
	{ID: "c7", Name: "Car Payment", Type: core.Expense, System: true},
	{ID: "c8", Name: "Car Insurance", Type: core.Expense, System: true},
	{ID: "c9", Name: "Home Insurance", Type: core.Expense, System: true},
	{ID: "c10", Name: "Other", Type: core.Expense, System: true},
	{ID: "c11", Name: "Salary", Type: core.Income, System: true},
	{ID: "c12", Name: "Freelance", Type: core.Income, System: true},
}

// DefaultCategories returns a fresh copy of the seed categories.
func DefaultCategories() []core.Category {
	return slices.Clone(defaultCategories)
}

// ByType filters categories by type, keeping order.
func ByType(categories []core.Category, t core.TxType) []core.Category {
	out := make([]core.Category, 0, len(categories))
	for _, c := range categories {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// ListCategories returns the persisted categories in stored order, or the
// defaults when none were ever persisted.
func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	err := s.View(ctx, func(st *State) error {
		out = slices.Clone(st.Categories)
		return nil
	})
	return out, err
}

// CreateCategory appends a user category.
func (s *Store) CreateCategory(ctx context.Context, name string, t core.TxType) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name), Type: t}
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	c.ID = s.newID()

	err := s.Update(ctx, func(st *State) error {
		st.Categories = append(st.Categories, c)
		st.Touch(CategoriesKey)
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}

	s.logger.InfoContext(ctx, "Category created", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

// RenameCategory renames in place. Unknown ids are ignored. Transactions
// keep their old label.
func (s *Store) RenameCategory(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename category: %w", core.ErrEmptyName)
	}
	return s.Update(ctx, func(st *State) error {
		i := indexCategory(st.Categories, id)
		if i < 0 {
			return nil
		}
		st.Categories[i].Name = name
		st.Touch(CategoriesKey)
		return nil
	})
}

// DeleteCategory removes a category. Unknown ids are ignored and
// transactions labelled with it are left alone.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.Update(ctx, func(st *State) error {
		i := indexCategory(st.Categories, id)
		if i < 0 {
			return nil
		}
		st.Categories = slices.Delete(st.Categories, i, i+1)
		st.Touch(CategoriesKey)
		return nil
	})
}

// ReorderCategories persists a new order. ordered must contain exactly the
// stored ids, each with its stored type.
func (s *Store) ReorderCategories(ctx context.Context, ordered []core.Category) error {
	return s.Update(ctx, func(st *State) error {
		if len(ordered) != len(st.Categories) {
			return fmt.Errorf("reorder categories: %w", core.ErrReorderMismatch)
		}
		stored := make(map[string]core.Category, len(st.Categories))
		for _, c := range st.Categories {
			stored[c.ID] = c
		}
		seen := make(map[string]bool, len(ordered))
		for _, c := range ordered {
			prev, ok := stored[c.ID]
			if !ok || seen[c.ID] {
				return fmt.Errorf("reorder categories: %w", core.ErrReorderMismatch)
			}
			if prev.Type != c.Type {
				return fmt.Errorf("reorder categories: %s: %w", c.ID, core.ErrCrossTypeMove)
			}
			seen[c.ID] = true
		}
		st.Categories = slices.Clone(ordered)
		st.Touch(CategoriesKey)
		return nil
	})
}

// MoveCategory moves id to the position currently held by overID, shifting
// the categories in between. Both must share a type.
func (s *Store) MoveCategory(ctx context.Context, id, overID string) error {
	if id == overID {
		return nil
	}
	return s.Update(ctx, func(st *State) error {
		from := indexCategory(st.Categories, id)
		to := indexCategory(st.Categories, overID)
		if from < 0 || to < 0 {
			return nil
		}
		if st.Categories[from].Type != st.Categories[to].Type {
			return fmt.Errorf("move category: %w", core.ErrCrossTypeMove)
		}
		st.Categories = arrayMove(st.Categories, from, to)
		st.Touch(CategoriesKey)
		return nil
	})
}

func indexCategory(categories []core.Category, id string) int {
	return slices.IndexFunc(categories, func(c core.Category) bool { return c.ID == id })
}

func arrayMove[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}
