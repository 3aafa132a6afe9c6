package http

import (
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"barbapro/internal/core"
	"barbapro/internal/export"
	"barbapro/internal/report"
)

type dashboardPayload struct {
	Date         core.Date                    `json:"date"`
	ShopDay      report.DayStats              `json:"shopDay"`
	ShopMonth    report.MonthStats            `json:"shopMonth"`
	Barbers      map[string]barberDashboard   `json:"barbers"`
	Payments     report.Breakdown             `json:"payments"`
	ServiceTypes map[string]report.TypeStats  `json:"serviceTypes"`
	Recurring    map[string]report.TypeStats  `json:"recurring"`
	Expenses     core.Money                   `json:"monthExpenses"`
	NetProfit    core.Money                   `json:"netProfit"`
}

type barberDashboard struct {
	Day   report.DayStats   `json:"day"`
	Month report.MonthStats `json:"month"`
}

// handleDashboard assembles every aggregate the dashboard needs in one
// response. Sections are computed concurrently over one snapshot; the
// aggregation functions are pure so they share it safely.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	today := core.DateOf(s.now())
	if cached, ok := s.dashCache.Get(today.String()); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	snap := s.ledger.Snapshot()

	payload := dashboardPayload{
		Date:    today,
		Barbers: make(map[string]barberDashboard, len(snap.Barbers)),
	}
	barberStats := make(map[string]*barberDashboard, len(snap.Barbers))
	for _, name := range snap.BarberNames() {
		barberStats[name] = &barberDashboard{}
	}

	g, _ := errgroup.WithContext(r.Context())
	g.Go(func() error {
		payload.ShopDay = report.ShopDay(snap, today)
		payload.ShopMonth = report.ShopMonth(snap, today)
		return nil
	})
	g.Go(func() error {
		for name, stats := range barberStats {
			stats.Day = report.BarberDay(snap, name, today)
			stats.Month = report.BarberMonth(snap, name, today)
		}
		return nil
	})
	g.Go(func() error {
		payload.Payments = report.PaymentBreakdown(snap, today.FirstOfMonth(), today)
		payload.ServiceTypes = report.ServiceTypeBreakdown(snap, today)
		return nil
	})
	g.Go(func() error {
		payload.Recurring = report.RecurringMonthTotals(snap, today)
		payload.Expenses = report.MonthExpenseTotal(snap, today)
		payload.NetProfit = report.NetProfit(snap, today)
		return nil
	})
	_ = g.Wait()

	for name, stats := range barberStats {
		payload.Barbers[name] = *stats
	}
	s.dashCache.Set(today.String(), payload)
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handlePaymentsReport(w http.ResponseWriter, r *http.Request) {
	defFrom, defTo := report.DefaultReportWindow(core.DateOf(s.now()))
	from, to, err := parseDateRange(r, defFrom, defTo)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	snap := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"startDate": from,
		"endDate":   to,
		"breakdown": report.PaymentBreakdown(snap, from, to),
		"byBarber":  report.PaidTotalsByBarber(snap, from, to),
		"services":  report.PaidServicesInRange(snap, from, to),
	})
}

func (s *Server) handleServicesReport(w http.ResponseWriter, r *http.Request) {
	defFrom, defTo := report.DefaultServiceWindow(core.DateOf(s.now()))
	from, to, err := parseDateRange(r, defFrom, defTo)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	snap := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"startDate": from,
		"endDate":   to,
		"services":  report.ServicesInRange(snap, from, to),
	})
}

func (s *Server) handleRecurringReport(w http.ResponseWriter, r *http.Request) {
	snap := s.ledger.Snapshot()
	today := core.DateOf(s.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"month":   today.FirstOfMonth(),
		"clients": report.RecurringActiveIn(snap, today),
		"totals":  report.RecurringMonthTotals(snap, today),
		"total":   report.RecurringMonthTotal(snap, today),
	})
}

func (s *Server) handleWhatsAppSummary(w http.ResponseWriter, _ *http.Request) {
	snap := s.ledger.Snapshot()
	message := report.Summary(snap, core.DateOf(s.now()))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": message,
		"link":    report.WhatsAppLink(snap.Settings.ContactNumber, message),
	})
}

func (s *Server) handleWhatsAppPayments(w http.ResponseWriter, r *http.Request) {
	defFrom, defTo := report.DefaultReportWindow(core.DateOf(s.now()))
	from, to, err := parseDateRange(r, defFrom, defTo)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	snap := s.ledger.Snapshot()
	message, ok := report.PaymentsReport(snap, from, to)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"empty": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"empty":   false,
		"message": message,
		"link":    report.WhatsAppLink(snap.Settings.ContactNumber, message),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	from, to, err := parseDateRange(r, core.Date{}, core.Date{})
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	snap := s.ledger.Snapshot()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", kind))

	switch kind {
	case "services.csv":
		err = export.WriteServicesCSV(w, report.ServicesInRange(snap, from, to))
	case "expenses.csv":
		err = export.WriteExpensesCSV(w, report.ExpensesInRange(snap, from, to))
	case "recurring.csv":
		err = export.WriteRecurringCSV(w, report.RecurringInRange(snap, from, to))
	default:
		w.Header().Del("Content-Disposition")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeBadRequest(w, "unknown export kind")
		return
	}
	if err != nil {
		s.logger.Error("csv export failed", "kind", kind, "error", err)
	}
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.NotFound(w, r)
		return
	}
	infos, err := s.archive.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleRestoreLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.NotFound(w, r)
		return
	}
	doc, info, err := s.archive.Latest(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.Restore(doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"restored": info.ID})
}

func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid snapshot id")
		return
	}
	doc, err := s.archive.Load(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.ledger.Restore(doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"restored": id})
}
