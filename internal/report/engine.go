// Package report is the aggregation engine: pure functions over a
// ledger snapshot. Nothing here mutates the document or touches I/O.
package report

import (
	"sort"

	"barbapro/internal/core"
)

// DayStats summarizes one barber's (or the whole shop's) day.
type DayStats struct {
	Count int        `json:"count"`
	Paid  core.Money `json:"paid"`
	Owed  core.Money `json:"owed"`
}

// MonthStats summarizes a calendar month.
type MonthStats struct {
	Count int        `json:"count"`
	Total core.Money `json:"total"`
	Paid  core.Money `json:"paid"`
	Owed  core.Money `json:"owed"`
}

// Breakdown buckets service value by settlement method. Unpaid value
// lands in Owed, so Received()+Owed always equals the value of every
// service counted.
type Breakdown struct {
	Cash   core.Money `json:"cash"`
	Pix    core.Money `json:"pix"`
	Debit  core.Money `json:"debit"`
	Credit core.Money `json:"credit"`
	Owed   core.Money `json:"owed"`
}

// Received is the settled part of the breakdown.
func (b Breakdown) Received() core.Money {
	return b.Cash.Add(b.Pix).Add(b.Debit).Add(b.Credit)
}

// GrandTotal is settled plus owed.
func (b Breakdown) GrandTotal() core.Money {
	return b.Received().Add(b.Owed)
}

// TypeStats counts services of one type.
type TypeStats struct {
	Count int        `json:"count"`
	Total core.Money `json:"total"`
}

// Entry pairs a service with the barber who rendered it, for listings
// that span the whole roster.
type Entry struct {
	Barber  string       `json:"barber"`
	Service core.Service `json:"service"`
}

// BarberDay aggregates one barber's services on one day.
func BarberDay(l *core.Ledger, barber string, day core.Date) DayStats {
	var stats DayStats
	for _, svc := range l.Barbers[barber] {
		if !svc.Date.Equal(day) {
			continue
		}
		stats.Count++
		if svc.Paid {
			stats.Paid = stats.Paid.Add(svc.Value)
		} else {
			stats.Owed = stats.Owed.Add(svc.Value)
		}
	}
	return stats
}

// ShopDay aggregates the whole roster's day.
func ShopDay(l *core.Ledger, day core.Date) DayStats {
	var stats DayStats
	for barber := range l.Barbers {
		b := BarberDay(l, barber, day)
		stats.Count += b.Count
		stats.Paid = stats.Paid.Add(b.Paid)
		stats.Owed = stats.Owed.Add(b.Owed)
	}
	return stats
}

// BarberMonth aggregates one barber's services in ref's calendar month.
func BarberMonth(l *core.Ledger, barber string, ref core.Date) MonthStats {
	var stats MonthStats
	for _, svc := range l.Barbers[barber] {
		if !svc.Date.SameMonth(ref) {
			continue
		}
		stats.Count++
		stats.Total = stats.Total.Add(svc.Value)
		if svc.Paid {
			stats.Paid = stats.Paid.Add(svc.Value)
		} else {
			stats.Owed = stats.Owed.Add(svc.Value)
		}
	}
	return stats
}

// ShopMonth aggregates the whole roster's month.
func ShopMonth(l *core.Ledger, ref core.Date) MonthStats {
	var stats MonthStats
	for barber := range l.Barbers {
		b := BarberMonth(l, barber, ref)
		stats.Count += b.Count
		stats.Total = stats.Total.Add(b.Total)
		stats.Paid = stats.Paid.Add(b.Paid)
		stats.Owed = stats.Owed.Add(b.Owed)
	}
	return stats
}

// PaymentBreakdown buckets every service in [from, to] by method.
func PaymentBreakdown(l *core.Ledger, from, to core.Date) Breakdown {
	var b Breakdown
	for _, services := range l.Barbers {
		for _, svc := range services {
			if !svc.Date.InRange(from, to) {
				continue
			}
			if !svc.Paid {
				b.Owed = b.Owed.Add(svc.Value)
				continue
			}
			switch svc.Method {
			case core.Cash:
				b.Cash = b.Cash.Add(svc.Value)
			case core.Pix:
				b.Pix = b.Pix.Add(svc.Value)
			case core.Debit:
				b.Debit = b.Debit.Add(svc.Value)
			case core.Credit:
				b.Credit = b.Credit.Add(svc.Value)
			}
		}
	}
	return b
}

// PaidTotalsByBarber sums settled value per barber over [from, to].
func PaidTotalsByBarber(l *core.Ledger, from, to core.Date) map[string]core.Money {
	totals := make(map[string]core.Money, len(l.Barbers))
	for barber, services := range l.Barbers {
		var total core.Money
		for _, svc := range services {
			if svc.Paid && svc.Date.InRange(from, to) {
				total = total.Add(svc.Value)
			}
		}
		totals[barber] = total
	}
	return totals
}

// ServiceTypeBreakdown counts the day's services per type.
func ServiceTypeBreakdown(l *core.Ledger, day core.Date) map[string]TypeStats {
	byType := make(map[string]TypeStats)
	for _, services := range l.Barbers {
		for _, svc := range services {
			if !svc.Date.Equal(day) {
				continue
			}
			stats := byType[svc.Type]
			stats.Count++
			stats.Total = stats.Total.Add(svc.Value)
			byType[svc.Type] = stats
		}
	}
	return byType
}

// MonthExpenseTotal sums the expenses in ref's calendar month.
func MonthExpenseTotal(l *core.Ledger, ref core.Date) core.Money {
	var total core.Money
	for _, exp := range l.Expenses {
		if exp.Date.SameMonth(ref) {
			total = total.Add(exp.Value)
		}
	}
	return total
}

// RecurringActiveIn selects the recurring clients counted for ref's
// month. Membership is keyed on the enrollment month (startDate), so a
// client enrolled in January does not appear in February's numbers.
// That is the shop's established reporting policy; change it here if
// recurring revenue should ever count every enrolled client.
func RecurringActiveIn(l *core.Ledger, ref core.Date) []core.RecurringClient {
	var active []core.RecurringClient
	for _, client := range l.RecurringClients {
		if client.StartDate.SameMonth(ref) {
			active = append(active, client)
		}
	}
	return active
}

// RecurringMonthTotals sums recurring value per barber for ref's month.
func RecurringMonthTotals(l *core.Ledger, ref core.Date) map[string]TypeStats {
	totals := make(map[string]TypeStats, len(l.Barbers))
	for barber := range l.Barbers {
		totals[barber] = TypeStats{}
	}
	for _, client := range RecurringActiveIn(l, ref) {
		stats := totals[client.Barber]
		stats.Count++
		stats.Total = stats.Total.Add(client.Value)
		totals[client.Barber] = stats
	}
	return totals
}

// RecurringMonthTotal sums recurring value across the roster.
func RecurringMonthTotal(l *core.Ledger, ref core.Date) core.Money {
	var total core.Money
	for _, client := range RecurringActiveIn(l, ref) {
		total = total.Add(client.Value)
	}
	return total
}

// NetProfit is the month's service value plus recurring value minus
// expenses. It can be negative.
func NetProfit(l *core.Ledger, ref core.Date) core.Money {
	revenue := ShopMonth(l, ref).Total.Add(RecurringMonthTotal(l, ref))
	return revenue.Sub(MonthExpenseTotal(l, ref))
}

// ServicesInRange lists every service in [from, to] across the roster,
// most recent first.
func ServicesInRange(l *core.Ledger, from, to core.Date) []Entry {
	var entries []Entry
	for barber, services := range l.Barbers {
		for _, svc := range services {
			if svc.Date.InRange(from, to) {
				entries = append(entries, Entry{Barber: barber, Service: svc})
			}
		}
	}
	sortEntriesDesc(entries)
	return entries
}

// PaidServicesInRange lists only the settled services, most recent first.
func PaidServicesInRange(l *core.Ledger, from, to core.Date) []Entry {
	all := ServicesInRange(l, from, to)
	paid := all[:0:0]
	for _, e := range all {
		if e.Service.Paid {
			paid = append(paid, e)
		}
	}
	return paid
}

// ExpensesInRange lists expenses in [from, to], most recent first.
func ExpensesInRange(l *core.Ledger, from, to core.Date) []core.Expense {
	var out []core.Expense
	for _, exp := range l.Expenses {
		if exp.Date.InRange(from, to) {
			out = append(out, exp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out
}

// RecurringInRange lists clients whose enrollment falls in [from, to],
// most recent first.
func RecurringInRange(l *core.Ledger, from, to core.Date) []core.RecurringClient {
	var out []core.RecurringClient
	for _, client := range l.RecurringClients {
		if client.StartDate.InRange(from, to) {
			out = append(out, client)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].StartDate.Before(out[i].StartDate)
	})
	return out
}

// Newest first: by date, then by time of day, then barber for stability.
func sortEntriesDesc(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Service, entries[j].Service
		if !a.Date.Equal(b.Date) {
			return b.Date.Before(a.Date)
		}
		if a.Time != b.Time {
			return a.Time > b.Time
		}
		return entries[i].Barber < entries[j].Barber
	})
}

// DefaultServiceWindow is the listing range used when the caller gives
// none: the last seven days including today.
func DefaultServiceWindow(today core.Date) (core.Date, core.Date) {
	return today.AddDays(-6), today
}

// DefaultReportWindow is the reporting range used when the caller gives
// none: the first of the month through today.
func DefaultReportWindow(today core.Date) (core.Date, core.Date) {
	return today.FirstOfMonth(), today
}
