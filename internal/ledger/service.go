package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"barbapro/internal/broadcast"
	"barbapro/internal/core"
	"barbapro/internal/log"
)

// Service is the mutation API. It is the only writer to the document:
// every operation takes the lock, validates, applies, persists the whole
// document and pushes a full_sync to every connected client.
//
// A failed save is logged and returned to the caller but the in-memory
// state stands; clients stay synced with memory and the next successful
// save catches the file up.
type Service struct {
	mu          sync.Mutex
	doc         *core.Ledger
	store       Store
	broadcaster broadcast.Broadcaster
	logger      *log.Logger

	now   func() time.Time
	newID func() string
}

// NewService loads the document and wires the mutation API around it.
func NewService(store Store, broadcaster broadcast.Broadcaster, logger *log.Logger) (*Service, error) {
	doc, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Service{
		doc:         doc,
		store:       store,
		broadcaster: broadcaster,
		logger:      logger.WithComponent(log.ComponentLedger),
		now:         time.Now,
		newID:       uuid.NewString,
	}, nil
}

// Snapshot returns a deep copy of the current document. Callers may
// read it freely; it never changes under them.
func (s *Service) Snapshot() *core.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// VerifyPIN checks an access attempt against the shop PIN.
func (s *Service) VerifyPIN(pin string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pin != "" && pin == s.doc.Settings.PIN
}

// AddService records a rendered service for the given barber. A zero
// date or time defaults to the moment of recording.
func (s *Service) AddService(barber string, svc core.Service) (core.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.HasBarber(barber) {
		return core.Service{}, &core.ValidationError{Field: "barber", Reason: "not in the configured roster"}
	}
	now := s.now()
	if svc.Date.IsZero() {
		svc.Date = core.DateOf(now)
	}
	if svc.Time == "" {
		svc.Time = core.TimeOfDayOf(now)
	}
	if err := svc.Validate(); err != nil {
		return core.Service{}, err
	}
	svc.ID = s.newID()

	s.doc.Barbers[barber] = append(s.doc.Barbers[barber], svc)
	event := broadcast.NewNotification(fmt.Sprintf("Novo serviço registrado para %s: %s (%s)", barber, svc.Type, svc.Value))
	event.Barber = barber
	event.RecordID = svc.ID
	created := svc
	event.Service = &created
	err := s.commit(event,
		log.NewFields().WithOperation(log.OpCreate).WithRecord(barber, svc.ID),
	)
	return svc, err
}

// DeleteService removes one service record from a barber's history.
func (s *Service) DeleteService(barber, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.HasBarber(barber) {
		return &core.NotFoundError{Kind: "barber", ID: barber}
	}
	services := s.doc.Barbers[barber]
	idx := -1
	for i, svc := range services {
		if svc.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &core.NotFoundError{Kind: "service", ID: id}
	}
	s.doc.Barbers[barber] = append(services[:idx:idx], services[idx+1:]...)

	return s.commit(
		broadcast.NewDeleteConfirmation(barber, id, fmt.Sprintf("Serviço de %s removido", barber)),
		log.NewFields().WithOperation(log.OpDelete).WithRecord(barber, id),
	)
}

// AddExpense records a shop-level expense. A zero date defaults to today.
func (s *Service) AddExpense(exp core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exp.Date.IsZero() {
		exp.Date = core.DateOf(s.now())
	}
	if err := exp.Validate(); err != nil {
		return core.Expense{}, err
	}
	exp.ID = s.newID()

	s.doc.Expenses = append(s.doc.Expenses, exp)
	event := broadcast.NewNotification(fmt.Sprintf("Despesa registrada: %s (%s)", exp.Description, exp.Value))
	event.RecordID = exp.ID
	created := exp
	event.Expense = &created
	err := s.commit(event,
		log.NewFields().WithOperation(log.OpCreate).WithRecord("", exp.ID),
	)
	return exp, err
}

// DeleteExpense removes one expense record.
func (s *Service) DeleteExpense(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, exp := range s.doc.Expenses {
		if exp.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &core.NotFoundError{Kind: "expense", ID: id}
	}
	s.doc.Expenses = append(s.doc.Expenses[:idx:idx], s.doc.Expenses[idx+1:]...)

	return s.commit(
		broadcast.NewDeleteConfirmation("", id, "Despesa removida"),
		log.NewFields().WithOperation(log.OpDelete).WithRecord("", id),
	)
}

// AddRecurringClient enrolls a monthly client. The assigned barber must
// be on the roster; a zero start date defaults to today and a blank
// status to pending.
func (s *Service) AddRecurringClient(client core.RecurringClient) (core.RecurringClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.doc.HasBarber(client.Barber) {
		return core.RecurringClient{}, &core.ValidationError{Field: "assignedBarber", Reason: "not in the configured roster"}
	}
	if client.StartDate.IsZero() {
		client.StartDate = core.DateOf(s.now())
	}
	if client.Status == "" {
		client.Status = core.StatusPending
	}
	if err := client.Validate(); err != nil {
		return core.RecurringClient{}, err
	}
	client.ID = s.newID()

	s.doc.RecurringClients = append(s.doc.RecurringClients, client)
	err := s.commit(
		broadcast.NewNotification(fmt.Sprintf("Mensalista cadastrado: %s (%s)", client.Name, client.Value)),
		log.NewFields().WithOperation(log.OpCreate).WithRecord(client.Barber, client.ID),
	)
	return client, err
}

// ToggleRecurringClientStatus flips a client between paid and pending
// for the current cycle.
func (s *Service) ToggleRecurringClientStatus(id string) (core.RecurringClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.RecurringClients {
		if s.doc.RecurringClients[i].ID != id {
			continue
		}
		s.doc.RecurringClients[i].Status = s.doc.RecurringClients[i].Status.Toggle()
		client := s.doc.RecurringClients[i]
		err := s.commit(
			broadcast.NewNotification(fmt.Sprintf("Mensalista %s agora está %s", client.Name, statusLabel(client.Status))),
			log.NewFields().WithOperation(log.OpToggle).WithRecord(client.Barber, id),
		)
		return client, err
	}
	return core.RecurringClient{}, &core.NotFoundError{Kind: "recurring client", ID: id}
}

// DeleteRecurringClient removes a client from the roster.
func (s *Service) DeleteRecurringClient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, client := range s.doc.RecurringClients {
		if client.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &core.NotFoundError{Kind: "recurring client", ID: id}
	}
	s.doc.RecurringClients = append(s.doc.RecurringClients[:idx:idx], s.doc.RecurringClients[idx+1:]...)

	return s.commit(
		broadcast.NewDeleteConfirmation("", id, "Mensalista removido"),
		log.NewFields().WithOperation(log.OpDelete).WithRecord("", id),
	)
}

// Restore replaces the whole document with an archived snapshot. It is
// an operator action, not part of the normal mutation surface.
func (s *Service) Restore(doc *core.Ledger) error {
	if doc == nil || len(doc.Barbers) == 0 {
		return &core.ValidationError{Field: "document", Reason: "snapshot has no barbers"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = doc.Clone()
	return s.commit(
		broadcast.NewNotification("Dados restaurados de um backup"),
		log.NewFields().WithOperation(log.OpRestore),
	)
}

// SettingsUpdate carries the optional fields of a settings change. Nil
// fields are left alone.
type SettingsUpdate struct {
	PIN           *string
	ContactNumber *string
	ServicePrices map[string]core.Money
}

// SettingsResult reports which fields of an update were applied and
// which were rejected, with the reason.
type SettingsResult struct {
	Settings core.Settings
	Applied  []string
	Rejected map[string]string
}

// UpdateSettings applies a settings change field by field. Each field is
// validated on its own: valid fields land even when a sibling field is
// rejected, and the result says which went which way.
func (s *Service) UpdateSettings(update SettingsUpdate) (SettingsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := SettingsResult{Rejected: map[string]string{}}

	if update.PIN != nil {
		if err := core.ValidatePIN(*update.PIN); err != nil {
			result.Rejected["pin"] = validationReason(err)
		} else {
			s.doc.Settings.PIN = *update.PIN
			result.Applied = append(result.Applied, "pin")
		}
	}
	if update.ContactNumber != nil {
		if err := core.ValidateContactNumber(*update.ContactNumber); err != nil {
			result.Rejected["contactNumber"] = validationReason(err)
		} else {
			s.doc.Settings.ContactNumber = *update.ContactNumber
			result.Applied = append(result.Applied, "contactNumber")
		}
	}
	for kind, price := range update.ServicePrices {
		field := "servicePrices." + kind
		if strings.TrimSpace(kind) == "" {
			result.Rejected[field] = "service name must not be empty"
			continue
		}
		if err := price.Validate(); err != nil {
			result.Rejected[field] = validationReason(err)
			continue
		}
		s.doc.Settings.ServicePrices[kind] = price
		result.Applied = append(result.Applied, field)
	}

	if len(result.Applied) == 0 {
		result.Settings = s.doc.Settings
		return result, nil
	}

	err := s.commit(
		broadcast.NewNotification("Configurações atualizadas"),
		log.NewFields().WithOperation(log.OpUpdate),
	)
	result.Settings = s.doc.Settings
	return result, err
}

// commit persists the document and pushes the post-mutation events.
// Callers hold the lock.
func (s *Service) commit(extra broadcast.Event, fields log.LogFields) error {
	saveErr := s.store.Save(s.doc)
	if saveErr != nil {
		s.logger.Error("Ledger save failed, memory state stands",
			fields.WithError(saveErr).ToSlice()...)
	} else {
		s.logger.Info("Ledger mutation committed", fields.ToSlice()...)
	}

	snapshot := s.doc.Clone()
	s.broadcaster.Publish(broadcast.NewFullSync(snapshot))
	s.broadcaster.Publish(extra)
	return saveErr
}

func statusLabel(status core.ClientStatus) string {
	if status == core.StatusPaid {
		return "pago"
	}
	return "pendente"
}

func validationReason(err error) string {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return err.Error()
}
