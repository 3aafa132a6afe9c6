package core

import (
	"strings"
)

const (
	Cash   PaymentMethod = "cash"
	Pix    PaymentMethod = "pix"
	Debit  PaymentMethod = "debit"
	Credit PaymentMethod = "credit"
)

const (
	StatusPaid    ClientStatus = "paid"
	StatusPending ClientStatus = "pending"
)

type (
	// PaymentMethod identifies how a paid service was settled.
	PaymentMethod string

	// ClientStatus is the billing state of a recurring client for the
	// current cycle.
	ClientStatus string

	// Service is one rendered service. The owning barber is implied by
	// which sequence of the ledger the record sits in.
	Service struct {
		ID     string        `json:"id"`
		Type   string        `json:"serviceType"`
		Value  Money         `json:"value"`
		Date   Date          `json:"date"`
		Time   TimeOfDay     `json:"time"`
		Paid   bool          `json:"paid"`
		Method PaymentMethod `json:"paymentMethod,omitempty"`
	}

	// Expense is a shop-level cost. Never attributed to a barber.
	Expense struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Value       Money  `json:"value"`
		Date        Date   `json:"date"`
	}

	// RecurringClient is a monthly-billing ("mensalista") arrangement.
	RecurringClient struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Barber    string       `json:"assignedBarber"`
		Value     Money        `json:"value"`
		DueDay    int          `json:"dueDay"`
		Status    ClientStatus `json:"status"`
		StartDate Date         `json:"startDate"`
	}

	// Settings is the singleton shop configuration.
	Settings struct {
		PIN           string           `json:"pin"`
		ContactNumber string           `json:"contactNumber"`
		ServicePrices map[string]Money `json:"servicePrices"`
	}
)

// PaymentMethods lists the accepted settlement kinds in display order.
var PaymentMethods = []PaymentMethod{Cash, Pix, Debit, Credit}

// Valid reports whether m is one of the enumerated payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case Cash, Pix, Debit, Credit:
		return true
	}
	return false
}

// Toggle flips paid to pending and back.
func (s ClientStatus) Toggle() ClientStatus {
	if s == StatusPaid {
		return StatusPending
	}
	return StatusPaid
}

func (s ClientStatus) Valid() bool {
	return s == StatusPaid || s == StatusPending
}

func (s Service) Validate() error {
	if strings.TrimSpace(s.Type) == "" {
		return &ValidationError{Field: "serviceType", Reason: "must not be empty"}
	}
	if err := s.Value.Validate(); err != nil {
		return err
	}
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if s.Time != "" {
		if err := s.Time.Validate(); err != nil {
			return err
		}
	}
	if s.Paid && !s.Method.Valid() {
		return &ValidationError{Field: "paymentMethod", Reason: "must be one of cash, pix, debit, credit for paid services"}
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if err := e.Value.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

func (c RecurringClient) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if err := c.Value.Validate(); err != nil {
		return err
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return &ValidationError{Field: "dueDay", Reason: "must be between 1 and 31"}
	}
	if !c.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "must be paid or pending"}
	}
	return c.StartDate.Validate()
}

// ValidatePIN checks the 4-digit PIN format used by Settings.
func ValidatePIN(pin string) error {
	if len(pin) != 4 {
		return &ValidationError{Field: "pin", Reason: "must be exactly 4 digits"}
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return &ValidationError{Field: "pin", Reason: "must be exactly 4 digits"}
		}
	}
	return nil
}

// ValidateContactNumber checks the outbound messaging number. It must
// be a bare digit string because it goes straight into a wa.me link.
func ValidateContactNumber(number string) error {
	if len(number) < 10 {
		return &ValidationError{Field: "contactNumber", Reason: "must contain at least 10 digits"}
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return &ValidationError{Field: "contactNumber", Reason: "must contain digits only"}
		}
	}
	return nil
}
