// Package books defines the outbound bookkeeping port: an append-only
// ledger mirror the worker writes settled movements to.
package books

import (
	"context"

	"barbapro/internal/core"
)

// Entry is one bookkeeping row. Amount is positive for revenue
// (services) and negative for expenses.
type Entry struct {
	Kind        string
	Date        core.Date
	Description string
	Barber      string
	Amount      core.Money
	Method      core.PaymentMethod
}

// Entry kinds.
const (
	KindService = "service"
	KindExpense = "expense"
)

// EntryWriter is the port for outbound bookkeeping adapters.
type EntryWriter interface {
	Append(ctx context.Context, entry Entry) (rowRef string, err error)
}

// ServiceEntry builds the row for a settled service.
func ServiceEntry(barber string, svc core.Service) Entry {
	return Entry{
		Kind:        KindService,
		Date:        svc.Date,
		Description: svc.Type,
		Barber:      barber,
		Amount:      svc.Value,
		Method:      svc.Method,
	}
}

// ExpenseEntry builds the row for a shop expense.
func ExpenseEntry(exp core.Expense) Entry {
	return Entry{
		Kind:        KindExpense,
		Date:        exp.Date,
		Description: exp.Description,
		Amount:      core.Money{Cents: -exp.Value.Cents},
	}
}
