package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"fintrack/internal/core"
)

// Backup is the export document.
type Backup struct {
	Categories   []core.Category          `json:"categories"`
	Transactions []core.Transaction       `json:"transactions"`
	Recurring    []core.RecurringTemplate `json:"recurring"`
}

// Export serializes all three collections in stored order.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	var doc Backup
	err := s.View(ctx, func(st *State) error {
		doc = Backup{
			Categories:   st.Categories,
			Transactions: st.Transactions,
			Recurring:    st.Recurring,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return out, nil
}

// Import replaces all three collections with the document's contents in a
// single commit. The document must hold categories, transactions and
// recurring as JSON arrays; otherwise nothing is written.
func (s *Store) Import(ctx context.Context, data []byte) error {
	doc, err := ParseBackup(data)
	if err != nil {
		return err
	}

	err = s.Update(ctx, func(st *State) error {
		st.Categories = doc.Categories
		st.Transactions = doc.Transactions
		st.Recurring = doc.Recurring
		st.Touch(CategoriesKey, TransactionsKey, RecurringKey)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Backup imported",
		"categories", len(doc.Categories),
		"transactions", len(doc.Transactions),
		"recurring", len(doc.Recurring))
	return nil
}

// ImportAll is Import reporting only success.
func (s *Store) ImportAll(ctx context.Context, data []byte) bool {
	if err := s.Import(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "Backup import rejected", "error", err)
		return false
	}
	return true
}

// ParseBackup validates and decodes an export document.
func ParseBackup(data []byte) (Backup, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", core.ErrInvalidBackup, err)
	}
	for _, key := range []string{"categories", "transactions", "recurring"} {
		raw, ok := fields[key]
		if !ok {
			return Backup{}, fmt.Errorf("%w: missing %s", core.ErrInvalidBackup, key)
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
			return Backup{}, fmt.Errorf("%w: %s is not an array", core.ErrInvalidBackup, key)
		}
	}

	var doc Backup
	if err := json.Unmarshal(fields["categories"], &doc.Categories); err != nil {
		return Backup{}, fmt.Errorf("%w: categories: %v", core.ErrInvalidBackup, err)
	}
	if err := json.Unmarshal(fields["transactions"], &doc.Transactions); err != nil {
		return Backup{}, fmt.Errorf("%w: transactions: %v", core.ErrInvalidBackup, err)
	}
	if err := json.Unmarshal(fields["recurring"], &doc.Recurring); err != nil {
		return Backup{}, fmt.Errorf("%w: recurring: %v", core.ErrInvalidBackup, err)
	}
	return doc, nil
}
