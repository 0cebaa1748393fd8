package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
)

// EventHandler reacts to ledger events consumed from AMQP.
type EventHandler struct {
	runner CatchUpRunner

	mu     sync.Mutex
	counts map[string]int
}

func NewEventHandler(runner CatchUpRunner) *EventHandler {
	return &EventHandler{
		runner: runner,
		counts: make(map[string]int),
	}
}

// HandleLedgerEvent processes one event. An import may bring templates that
// are already overdue, so it triggers catch-up; a returned error requeues
// the delivery.
func (h *EventHandler) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	h.mu.Lock()
	h.counts[ev.Kind]++
	h.mu.Unlock()

	switch ev.Kind {
	case amqp.KindLedgerImported, amqp.KindRecurringAdded:
		generated, err := h.runner.CatchUp(ctx)
		if err != nil {
			return fmt.Errorf("catch up after %s: %w", ev.Kind, err)
		}
		slog.InfoContext(ctx, "Catch-up triggered by ledger event",
			log.FieldEventKind, ev.Kind,
			"generated", len(generated))
	case amqp.KindRecurringCaughtUp:
		slog.InfoContext(ctx, "Recurring transactions generated elsewhere", "count", ev.Count)
	default:
		slog.DebugContext(ctx, "Ledger event observed", log.FieldEventKind, ev.Kind, "id", ev.ID)
	}
	return nil
}

// Counts returns a snapshot of events seen per kind.
func (h *EventHandler) Counts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}
