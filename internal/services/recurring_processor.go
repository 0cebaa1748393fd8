package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// RecurringProcessor materializes the transactions recurring templates owe.
type RecurringProcessor struct {
	store   *storage.Store
	cadence Cadence
	group   singleflight.Group
	logger  *slog.Logger
}

// NewRecurringProcessor creates a processor stepping templates monthly.
func NewRecurringProcessor(store *storage.Store) *RecurringProcessor {
	return &RecurringProcessor{
		store:   store,
		cadence: MonthlyCadence{},
		logger:  slog.Default().With(log.FieldComponent, log.ComponentRecurring),
	}
}

// CatchUp runs catch-up against the store's clock and reports whether any
// transaction was generated.
func (p *RecurringProcessor) CatchUp(ctx context.Context) (bool, error) {
	generated, err := p.Run(ctx)
	if err != nil {
		return false, err
	}
	return len(generated) > 0, nil
}

// Run is CatchUpAt(ctx, now) with concurrent callers sharing one run. The
// shared run ignores the first caller's cancellation so the others are not
// failed by it. The returned slice may be shared and must not be modified.
func (p *RecurringProcessor) Run(ctx context.Context) ([]core.Transaction, error) {
	if p.store == nil {
		return nil, fmt.Errorf("processor not properly initialized")
	}
	v, err, shared := p.group.Do("catch-up", func() (any, error) {
		return p.CatchUpAt(context.WithoutCancel(ctx), p.store.Now())
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.logger.DebugContext(ctx, "Catch-up result shared with concurrent caller")
	}
	return v.([]core.Transaction), nil
}

// CatchUpAt generates one transaction per elapsed month for every template,
// advances each template's lastGenerated and commits both collections at
// once. Running it again with the same now generates nothing.
func (p *RecurringProcessor) CatchUpAt(ctx context.Context, now time.Time) ([]core.Transaction, error) {
	if p.store == nil {
		return nil, fmt.Errorf("processor not properly initialized")
	}

	var generated []core.Transaction
	err := p.store.Update(ctx, func(st *storage.State) error {
		generated = nil
		for i := range st.Recurring {
			tpl := &st.Recurring[i]
			if tpl.LastGenerated.IsZero() {
				p.logger.WarnContext(ctx, "Skipping recurring template without lastGenerated", log.FieldRecurrentID, tpl.ID)
				continue
			}

			anchor := tpl.Anchor()
			due := DueOccurrences(p.cadence, tpl.LastGenerated, anchor, now)
			if len(due) == 0 {
				continue
			}

			for _, at := range due {
				generated = append(generated, core.Transaction{
					ID:          p.store.NewID(),
					Type:        tpl.Type,
					Amount:      tpl.Amount,
					Category:    tpl.Category,
					Date:        core.DateOf(at),
					Description: tpl.Description + core.RecurringSuffix,
					CreatedAt:   now,
				})
			}
			tpl.LastGenerated = due[len(due)-1]
			tpl.DayOfMonth = anchor

			p.logger.InfoContext(ctx, "Caught up recurring template",
				log.FieldRecurrentID, tpl.ID,
				"description", tpl.Description,
				"generated", len(due),
				"last_generated", tpl.LastGenerated.Format(core.DateLayout))
		}

		if len(generated) == 0 {
			return nil
		}
		st.Transactions = append(st.Transactions, generated...)
		st.Touch(storage.TransactionsKey, storage.RecurringKey)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catch up recurring: %w", err)
	}

	if len(generated) > 0 {
		p.logger.InfoContext(ctx, "Recurring catch-up complete",
			"generated", len(generated),
			"processing_date", now.Format(core.DateLayout))
	}
	return generated, nil
}
