// Package broadcast defines the sync events pushed to every connected
// client after a mutation, and the fan-out plumbing that delivers them.
package broadcast

import (
	"encoding/json"
	"fmt"
	"time"

	"barbapro/internal/core"
)

// Event kinds. Every mutation produces a full_sync; clients replace
// their local state with the attached snapshot instead of patching.
const (
	KindInitialSnapshot    = "initial_snapshot"
	KindFullSync           = "full_sync"
	KindNotification       = "notification"
	KindDeleteConfirmation = "delete_confirmation"
)

// Event is one message on the sync channel. Ledger is set on snapshot
// kinds; the record fields are set on the kinds that announce a single
// record so out-of-process consumers need not diff snapshots.
type Event struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	Ledger   *core.Ledger `json:"ledger,omitempty"`
	Message  string       `json:"message,omitempty"`
	Barber   string       `json:"barber,omitempty"`
	RecordID string       `json:"recordId,omitempty"`

	Service *core.Service `json:"service,omitempty"`
	Expense *core.Expense `json:"expense,omitempty"`
}

// NewFullSync builds the snapshot event that follows every committed
// mutation.
func NewFullSync(ledger *core.Ledger) Event {
	return Event{
		Kind:      KindFullSync,
		Timestamp: time.Now().UTC(),
		Ledger:    ledger,
	}
}

// NewInitialSnapshot builds the event sent to a client right after it
// subscribes.
func NewInitialSnapshot(ledger *core.Ledger) Event {
	return Event{
		Kind:      KindInitialSnapshot,
		Timestamp: time.Now().UTC(),
		Ledger:    ledger,
	}
}

// NewNotification builds a human-readable toast event.
func NewNotification(message string) Event {
	return Event{
		Kind:      KindNotification,
		Timestamp: time.Now().UTC(),
		Message:   message,
	}
}

// NewDeleteConfirmation announces that a record was removed.
func NewDeleteConfirmation(barber, recordID, message string) Event {
	return Event{
		Kind:      KindDeleteConfirmation,
		Timestamp: time.Now().UTC(),
		Barber:    barber,
		RecordID:  recordID,
		Message:   message,
	}
}

// ToJSON serializes the event for the wire.
func (e Event) ToJSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// EventFromJSON deserializes an event from the wire.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if e.Kind == "" {
		return Event{}, fmt.Errorf("event has no kind")
	}
	return e, nil
}
