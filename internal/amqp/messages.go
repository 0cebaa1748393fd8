package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published after a ledger mutation commits.
const (
	KindCategoryCreated     = "category.created"
	KindCategoryRenamed     = "category.renamed"
	KindCategoryDeleted     = "category.deleted"
	KindCategoriesReordered = "categories.reordered"
	KindTransactionAdded    = "transaction.added"
	KindTransactionUpdated  = "transaction.updated"
	KindTransactionDeleted  = "transaction.deleted"
	KindRecurringAdded      = "recurring.added"
	KindRecurringCaughtUp   = "recurring.caught_up"
	KindLedgerImported      = "ledger.imported"
)

// LedgerEvent is a lightweight notification that the ledger changed.
// Consumers re-read the store for details.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind, id string, count int) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		ID:        id,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
