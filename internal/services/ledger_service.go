package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// EventPublisher delivers ledger change notifications.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
	Close() error
}

// LedgerService orchestrates ledger operations across the store, the
// recurring processor and event publishing. Publishing is best effort:
// a committed mutation is never reported as failed because of AMQP.
type LedgerService struct {
	store     *storage.Store
	recurring *RecurringProcessor
	publisher EventPublisher
}

// NewLedgerService wires a service. publisher may be nil.
func NewLedgerService(store *storage.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		recurring: NewRecurringProcessor(store),
		publisher: publisher,
	}
}

// Store exposes the underlying engine for read paths.
func (s *LedgerService) Store() *storage.Store { return s.store }

// Recurring exposes the catch-up processor.
func (s *LedgerService) Recurring() *RecurringProcessor { return s.recurring }

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) CreateCategory(ctx context.Context, name string, t core.TxType) (core.Category, error) {
	c, err := s.store.CreateCategory(ctx, name, t)
	if err != nil {
		return core.Category{}, err
	}
	s.publish(ctx, amqp.KindCategoryCreated, c.ID, 1)
	return c, nil
}

func (s *LedgerService) RenameCategory(ctx context.Context, id, name string) error {
	if err := s.store.RenameCategory(ctx, id, name); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindCategoryRenamed, id, 1)
	return nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindCategoryDeleted, id, 1)
	return nil
}

func (s *LedgerService) ReorderCategories(ctx context.Context, ordered []core.Category) error {
	if err := s.store.ReorderCategories(ctx, ordered); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindCategoriesReordered, "", len(ordered))
	return nil
}

func (s *LedgerService) MoveCategory(ctx context.Context, id, overID string) error {
	if err := s.store.MoveCategory(ctx, id, overID); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindCategoriesReordered, id, 1)
	return nil
}

// ListTransactions returns the ledger newest first. With catchUp set, the
// recurring catch-up runs first, as a page load would.
func (s *LedgerService) ListTransactions(ctx context.Context, catchUp bool) ([]core.Transaction, error) {
	if catchUp {
		if _, err := s.CatchUp(ctx); err != nil {
			return nil, err
		}
	}
	return s.store.ListTransactions(ctx)
}

// AddTransaction records tx. With repeat set, a monthly template is created
// from it in the same commit.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction, repeat bool) (core.Transaction, error) {
	if repeat {
		saved, tpl, err := s.store.AddRepeatingTransaction(ctx, tx)
		if err != nil {
			return core.Transaction{}, err
		}
		s.publish(ctx, amqp.KindTransactionAdded, saved.ID, 1)
		s.publish(ctx, amqp.KindRecurringAdded, tpl.ID, 1)
		return saved, nil
	}

	saved, err := s.store.AddTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.KindTransactionAdded, saved.ID, 1)
	return saved, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindTransactionUpdated, tx.ID, 1)
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindTransactionDeleted, id, 1)
	return nil
}

func (s *LedgerService) ListRecurring(ctx context.Context) ([]core.RecurringTemplate, error) {
	return s.store.ListRecurring(ctx)
}

func (s *LedgerService) AddRecurring(ctx context.Context, tpl core.RecurringTemplate) (core.RecurringTemplate, error) {
	saved, err := s.store.AddRecurring(ctx, tpl)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	s.publish(ctx, amqp.KindRecurringAdded, saved.ID, 1)
	return saved, nil
}

// CatchUp runs recurring catch-up and returns the generated transactions.
func (s *LedgerService) CatchUp(ctx context.Context) ([]core.Transaction, error) {
	generated, err := s.recurring.Run(ctx)
	if err != nil {
		return nil, err
	}
	if len(generated) > 0 {
		s.publish(ctx, amqp.KindRecurringCaughtUp, "", len(generated))
	}
	return generated, nil
}

func (s *LedgerService) Export(ctx context.Context) ([]byte, error) {
	return s.store.Export(ctx)
}

// Import replaces the whole ledger. Nothing is written on error.
func (s *LedgerService) Import(ctx context.Context, data []byte) error {
	if err := s.store.Import(ctx, data); err != nil {
		return err
	}
	s.publish(ctx, amqp.KindLedgerImported, "", 0)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, kind, id string, count int) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping ledger event", log.FieldEventKind, kind)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(kind, id, count)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, kind,
			"id", id,
			"error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
