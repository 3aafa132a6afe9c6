package http

import (
	"net/http"

	"barbapro/internal/core"
	"barbapro/internal/ledger"
)

func (s *Server) handleData(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Snapshot())
}

func (s *Server) handlePIN(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PIN string `json:"pin"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if !s.ledger.VerifyPIN(body.PIN) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"invalid pin"}` + "\n"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
}

func (s *Server) handleAddService(w http.ResponseWriter, r *http.Request) {
	barber := r.PathValue("barber")
	var body struct {
		Type   string             `json:"serviceType"`
		Value  moneyField         `json:"value"`
		Date   core.Date          `json:"date"`
		Time   core.TimeOfDay     `json:"time"`
		Paid   bool               `json:"paid"`
		Method core.PaymentMethod `json:"paymentMethod"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	svc, err := s.ledger.AddService(barber, core.Service{
		Type:   body.Type,
		Value:  body.Value.Money,
		Date:   body.Date,
		Time:   body.Time,
		Paid:   body.Paid,
		Method: body.Method,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteService(r.PathValue("barber"), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string     `json:"description"`
		Value       moneyField `json:"value"`
		Date        core.Date  `json:"date"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	exp, err := s.ledger.AddExpense(core.Expense{
		Description: body.Description,
		Value:       body.Value.Money,
		Date:        body.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteExpense(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string     `json:"name"`
		Barber    string     `json:"assignedBarber"`
		Value     moneyField `json:"value"`
		DueDay    int        `json:"dueDay"`
		StartDate core.Date  `json:"startDate"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	client, err := s.ledger.AddRecurringClient(core.RecurringClient{
		Name:      body.Name,
		Barber:    body.Barber,
		Value:     body.Value.Money,
		DueDay:    body.DueDay,
		StartDate: body.StartDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) handleToggleClient(w http.ResponseWriter, r *http.Request) {
	client, err := s.ledger.ToggleRecurringClientStatus(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteRecurringClient(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PIN           *string               `json:"pin"`
		ContactNumber *string               `json:"contactNumber"`
		ServicePrices map[string]moneyField `json:"servicePrices"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var prices map[string]core.Money
	if body.ServicePrices != nil {
		prices = make(map[string]core.Money, len(body.ServicePrices))
		for kind, price := range body.ServicePrices {
			prices[kind] = price.Money
		}
	}
	result, err := s.ledger.UpdateSettings(ledger.SettingsUpdate{
		PIN:           body.PIN,
		ContactNumber: body.ContactNumber,
		ServicePrices: prices,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"config":   result.Settings,
		"applied":  result.Applied,
		"rejected": result.Rejected,
	})
}
