package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Reserved top-level keys of the persisted document. Every other
// top-level key is a barber name.
const (
	keyExpenses  = "expenses"
	keyRecurring = "recurringClients"
	keyConfig    = "config"
)

// Ledger is the whole shop ledger: every barber's service history, the
// expense log, the recurring client roster and the shop settings. One
// instance is the single source of truth; mutations replace it wholesale.
type Ledger struct {
	Barbers          map[string][]Service
	Expenses         []Expense
	RecurringClients []RecurringClient
	Settings         Settings
}

// DefaultLedger builds a fresh ledger for the given barber roster with
// the shop's stock settings. It is what the store falls back to when the
// backing file is missing or unreadable.
func DefaultLedger(roster []string) *Ledger {
	barbers := make(map[string][]Service, len(roster))
	for _, name := range roster {
		barbers[name] = []Service{}
	}
	return &Ledger{
		Barbers:          barbers,
		Expenses:         []Expense{},
		RecurringClients: []RecurringClient{},
		Settings: Settings{
			PIN:           "1234",
			ContactNumber: "11962094589",
			ServicePrices: map[string]Money{
				"corte": {Cents: 2800},
				"barba": {Cents: 1500},
				"combo": {Cents: 4000},
			},
		},
	}
}

// BarberNames returns the roster sorted alphabetically.
func (l *Ledger) BarberNames() []string {
	names := make([]string, 0, len(l.Barbers))
	for name := range l.Barbers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasBarber reports whether name is in the roster.
func (l *Ledger) HasBarber(name string) bool {
	_, ok := l.Barbers[name]
	return ok
}

// Clone returns a deep copy. Handlers hold clones so readers never see a
// document mid-mutation.
func (l *Ledger) Clone() *Ledger {
	out := &Ledger{
		Barbers:          make(map[string][]Service, len(l.Barbers)),
		Expenses:         append([]Expense(nil), l.Expenses...),
		RecurringClients: append([]RecurringClient(nil), l.RecurringClients...),
		Settings: Settings{
			PIN:           l.Settings.PIN,
			ContactNumber: l.Settings.ContactNumber,
			ServicePrices: make(map[string]Money, len(l.Settings.ServicePrices)),
		},
	}
	for name, services := range l.Barbers {
		out.Barbers[name] = append([]Service(nil), services...)
	}
	for kind, price := range l.Settings.ServicePrices {
		out.Settings.ServicePrices[kind] = price
	}
	return out
}

// MarshalJSON writes the document in its persisted shape: one top-level
// key per barber plus the reserved "expenses", "recurringClients" and
// "config" keys. Barber keys are emitted in sorted order so identical
// ledgers always serialize to identical bytes.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, name := range l.BarberNames() {
		if err := writeField(&buf, name, l.Barbers[name]); err != nil {
			return nil, err
		}
	}
	if err := writeField(&buf, keyExpenses, l.Expenses); err != nil {
		return nil, err
	}
	if err := writeField(&buf, keyRecurring, l.RecurringClients); err != nil {
		return nil, err
	}
	if err := writeField(&buf, keyConfig, l.Settings); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, value any) error {
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// UnmarshalJSON reads the persisted shape back. A document without a
// "config" object is rejected, which makes the store treat it as corrupt
// and start over from defaults.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if _, ok := raw[keyConfig]; !ok {
		return fmt.Errorf("document has no config section")
	}
	out := Ledger{
		Barbers:          map[string][]Service{},
		Expenses:         []Expense{},
		RecurringClients: []RecurringClient{},
	}
	for key, value := range raw {
		switch key {
		case keyExpenses:
			if err := json.Unmarshal(value, &out.Expenses); err != nil {
				return fmt.Errorf("unmarshal expenses: %w", err)
			}
		case keyRecurring:
			if err := json.Unmarshal(value, &out.RecurringClients); err != nil {
				return fmt.Errorf("unmarshal recurring clients: %w", err)
			}
		case keyConfig:
			if err := json.Unmarshal(value, &out.Settings); err != nil {
				return fmt.Errorf("unmarshal config: %w", err)
			}
		default:
			var services []Service
			if err := json.Unmarshal(value, &services); err != nil {
				return fmt.Errorf("unmarshal services for %s: %w", key, err)
			}
			if services == nil {
				services = []Service{}
			}
			out.Barbers[key] = services
		}
	}
	if out.Expenses == nil {
		out.Expenses = []Expense{}
	}
	if out.RecurringClients == nil {
		out.RecurringClients = []RecurringClient{}
	}
	if out.Settings.ServicePrices == nil {
		out.Settings.ServicePrices = map[string]Money{}
	}
	*l = out
	return nil
}
