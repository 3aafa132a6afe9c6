// Package export renders filtered ledger listings as CSV for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"barbapro/internal/core"
	"barbapro/internal/report"
)

func formatCents(m core.Money) string {
	return strconv.FormatFloat(float64(m.Cents)/100, 'f', 2, 64)
}

// WriteServicesCSV serialises a service listing, one row per service.
func WriteServicesCSV(w io.Writer, entries []report.Entry) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Time", "Barber", "Service", "Value", "Paid", "Payment Method"}); err != nil {
		return err
	}
	for _, entry := range entries {
		svc := entry.Service
		if err := writer.Write([]string{
			svc.Date.String(),
			svc.Time.String(),
			entry.Barber,
			svc.Type,
			formatCents(svc.Value),
			strconv.FormatBool(svc.Paid),
			string(svc.Method),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteExpensesCSV serialises an expense listing.
func WriteExpensesCSV(w io.Writer, expenses []core.Expense) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Description", "Value"}); err != nil {
		return err
	}
	for _, exp := range expenses {
		if err := writer.Write([]string{
			exp.Date.String(),
			exp.Description,
			formatCents(exp.Value),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRecurringCSV serialises the recurring client roster.
func WriteRecurringCSV(w io.Writer, clients []core.RecurringClient) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Name", "Barber", "Value", "Due Day", "Status", "Start Date"}); err != nil {
		return err
	}
	for _, client := range clients {
		if err := writer.Write([]string{
			client.Name,
			client.Barber,
			formatCents(client.Value),
			fmt.Sprint(client.DueDay),
			string(client.Status),
			client.StartDate.String(),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
