package http

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"barbapro/internal/core"
)

const maxBodyBytes = 1 << 20

type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var vErr *core.ValidationError
	var nfErr *core.NotFoundError
	var pErr *core.PersistenceError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusUnprocessableEntity
		msg = vErr.Error()
	case errors.As(err, &nfErr):
		status = http.StatusNotFound
		msg = nfErr.Error()
	case errors.As(err, &pErr):
		status = http.StatusInternalServerError
		msg = "failed to persist changes"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseDateRange reads optional startDate/endDate query parameters,
// falling back to the provided default window.
func parseDateRange(r *http.Request, defaultFrom, defaultTo core.Date) (core.Date, core.Date, error) {
	from, to := defaultFrom, defaultTo

	if raw := r.URL.Query().Get("startDate"); raw != "" {
		parsed, err := core.ParseDate(raw)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("startDate: %w", err)
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		parsed, err := core.ParseDate(raw)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("endDate: %w", err)
		}
		to = parsed
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return core.Date{}, core.Date{}, errors.New("endDate precedes startDate")
	}
	return from, to, nil
}

// moneyField accepts the two value shapes clients send: a bare integer
// is cents, a string ("28.00", "28,50") is decimal reais.
type moneyField struct {
	core.Money
}

func (m *moneyField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		cents, err := core.ParseDecimalToCents(s)
		if err != nil {
			return err
		}
		m.Cents = cents
		return nil
	}
	if bytes.ContainsRune(trimmed, '.') {
		cents, err := core.ParseDecimalToCents(string(trimmed))
		if err != nil {
			return err
		}
		m.Cents = cents
		return nil
	}
	return m.Money.UnmarshalJSON(data)
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "req-unknown"
	}
	return hex.EncodeToString(buf)
}
