// Package worker holds the bookkeeping consumer: it listens to the
// sync event stream and mirrors settled movements into the books.
package worker

import (
	"context"

	"barbapro/internal/books"
	"barbapro/internal/broadcast"
	"barbapro/internal/log"
)

// Bookkeeper appends settled services and expenses to the bookkeeping
// ledger as their creation events arrive.
type Bookkeeper struct {
	writer books.EntryWriter
	logger *log.Logger
}

func NewBookkeeper(writer books.EntryWriter, logger *log.Logger) *Bookkeeper {
	return &Bookkeeper{
		writer: writer,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one sync event. Snapshot and delete events are
// ignored; the books are append-only. A returned error requeues the
// event for another attempt.
func (b *Bookkeeper) HandleEvent(ctx context.Context, event broadcast.Event) error {
	if event.Kind != broadcast.KindNotification {
		return nil
	}

	switch {
	case event.Service != nil:
		if !event.Service.Paid {
			// unpaid services are not revenue yet
			return nil
		}
		entry := books.ServiceEntry(event.Barber, *event.Service)
		ref, err := b.writer.Append(ctx, entry)
		if err != nil {
			return err
		}
		b.logger.Info("Booked service",
			log.FieldOperation, log.OpAppend,
			log.FieldBarber, event.Barber,
			log.FieldRecordID, event.Service.ID,
			log.FieldServiceType, event.Service.Type,
			log.FieldAmountCents, event.Service.Value.Cents,
			log.FieldSheetsRef, ref)
	case event.Expense != nil:
		entry := books.ExpenseEntry(*event.Expense)
		ref, err := b.writer.Append(ctx, entry)
		if err != nil {
			return err
		}
		b.logger.Info("Booked expense",
			log.FieldOperation, log.OpAppend,
			log.FieldRecordID, event.Expense.ID,
			log.FieldAmountCents, event.Expense.Value.Cents,
			log.FieldSheetsRef, ref)
	}
	return nil
}
