package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"barbapro/internal/broadcast"
	"barbapro/internal/core"
)

// recorder captures published events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (r *recorder) Publish(event broadcast.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (r *recorder) last() broadcast.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "ledger.json"), testRoster, testLogger())
	rec := &recorder{}
	svc, err := NewService(store, rec, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)
	}
	rec.mu.Lock()
	rec.events = nil
	rec.mu.Unlock()
	return svc, rec
}

func validService() core.Service {
	return core.Service{
		Type:   "corte",
		Value:  core.Money{Cents: 2800},
		Paid:   true,
		Method: core.Pix,
	}
}

func TestAddService(t *testing.T) {
	svc, rec := newTestService(t)

	created, err := svc.AddService("Gabriel", validService())
	if err != nil {
		t.Fatalf("AddService: %v", err)
	}
	if created.ID == "" {
		t.Error("no id assigned")
	}
	if created.Date.String() != "2025-03-15" || created.Time != "14:30" {
		t.Errorf("defaults not applied: %s %s", created.Date, created.Time)
	}

	snap := svc.Snapshot()
	if len(snap.Barbers["Gabriel"]) != 1 {
		t.Fatalf("service not in snapshot")
	}

	kinds := rec.kinds()
	if len(kinds) != 2 || kinds[0] != broadcast.KindFullSync || kinds[1] != broadcast.KindNotification {
		t.Errorf("events = %v", kinds)
	}
	if notif := rec.last(); notif.Service == nil || notif.Service.ID != created.ID {
		t.Error("notification missing service payload")
	}
}

func TestAddServiceErrors(t *testing.T) {
	svc, rec := newTestService(t)

	if _, err := svc.AddService("Nobody", validService()); !core.IsValidation(err) {
		t.Errorf("unknown barber: got %v, want validation error", err)
	}

	bad := validService()
	bad.Value = core.Money{}
	if _, err := svc.AddService("Gabriel", bad); !core.IsValidation(err) {
		t.Errorf("invalid value: got %v", err)
	}

	if len(rec.kinds()) != 0 {
		t.Error("rejected mutation still broadcast")
	}
	if len(svc.Snapshot().Barbers["Gabriel"]) != 0 {
		t.Error("rejected mutation touched the ledger")
	}
}

func TestDeleteService(t *testing.T) {
	svc, rec := newTestService(t)
	created, err := svc.AddService("Wagner", validService())
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteService("Wagner", created.ID); err != nil {
		t.Fatalf("DeleteService: %v", err)
	}
	if len(svc.Snapshot().Barbers["Wagner"]) != 0 {
		t.Error("service still present after delete")
	}
	if last := rec.last(); last.Kind != broadcast.KindDeleteConfirmation || last.RecordID != created.ID {
		t.Errorf("delete confirmation wrong: %+v", last)
	}

	if err := svc.DeleteService("Wagner", created.ID); !core.IsNotFound(err) {
		t.Errorf("second delete: got %v", err)
	}
	if err := svc.DeleteService("Nobody", created.ID); !core.IsNotFound(err) {
		t.Errorf("unknown barber: got %v", err)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	exp, err := svc.AddExpense(core.Expense{Description: "luz", Value: core.Money{Cents: 900}})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	if exp.Date.String() != "2025-03-15" {
		t.Errorf("date default not applied: %s", exp.Date)
	}

	if _, err := svc.AddExpense(core.Expense{Description: ""}); !core.IsValidation(err) {
		t.Errorf("blank expense: got %v", err)
	}

	if err := svc.DeleteExpense(exp.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := svc.DeleteExpense(exp.ID); !core.IsNotFound(err) {
		t.Errorf("second delete: got %v", err)
	}
}

func TestRecurringClientLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	client, err := svc.AddRecurringClient(core.RecurringClient{
		Name:   "Carlos",
		Barber: "Gabriel",
		Value:  core.Money{Cents: 10000},
		DueDay: 5,
	})
	if err != nil {
		t.Fatalf("AddRecurringClient: %v", err)
	}
	if client.Status != core.StatusPending {
		t.Errorf("default status = %q", client.Status)
	}
	if client.StartDate.String() != "2025-03-15" {
		t.Errorf("default start date = %s", client.StartDate)
	}

	toggled, err := svc.ToggleRecurringClientStatus(client.ID)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if toggled.Status != core.StatusPaid {
		t.Errorf("toggled status = %q", toggled.Status)
	}

	if _, err := svc.ToggleRecurringClientStatus("missing"); !core.IsNotFound(err) {
		t.Errorf("toggle missing: got %v", err)
	}

	if err := svc.DeleteRecurringClient(client.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(svc.Snapshot().RecurringClients) != 0 {
		t.Error("client still present after delete")
	}

	if _, err := svc.AddRecurringClient(core.RecurringClient{
		Name: "Zé", Barber: "Nobody", Value: core.Money{Cents: 5000}, DueDay: 1,
	}); !core.IsValidation(err) {
		t.Errorf("unknown barber: got %v, want validation error", err)
	}
}

func TestUpdateSettingsPartialAcceptance(t *testing.T) {
	svc, _ := newTestService(t)

	badPIN := "12"
	goodNumber := "11999990000"
	result, err := svc.UpdateSettings(SettingsUpdate{
		PIN:           &badPIN,
		ContactNumber: &goodNumber,
		ServicePrices: map[string]core.Money{
			"corte":     {Cents: 3000},
			"sobrancel": {Cents: 0},
		},
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	if _, ok := result.Rejected["pin"]; !ok {
		t.Error("short pin not rejected")
	}
	if _, ok := result.Rejected["servicePrices.sobrancel"]; !ok {
		t.Error("zero price not rejected")
	}
	if result.Settings.PIN != "1234" {
		t.Error("rejected pin applied")
	}
	if result.Settings.ContactNumber != goodNumber {
		t.Error("valid contact number not applied")
	}
	if result.Settings.ServicePrices["corte"].Cents != 3000 {
		t.Error("valid price not applied")
	}
}

func TestUpdateSettingsOnDocumentWithoutPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	legacy := `{"Gabriel":[],"Wagner":[],"config":{"pin":"1234","contactNumber":"11962094589"}}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path, testRoster, testLogger())
	svc, err := NewService(store, &recorder{}, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	result, err := svc.UpdateSettings(SettingsUpdate{
		ServicePrices: map[string]core.Money{"corte": {Cents: 3000}},
	})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if len(result.Applied) != 1 || result.Applied[0] != "servicePrices.corte" {
		t.Errorf("applied = %v", result.Applied)
	}
	if got := svc.Snapshot().Settings.ServicePrices["corte"].Cents; got != 3000 {
		t.Errorf("price = %d, want 3000", got)
	}
}

func TestVerifyPIN(t *testing.T) {
	svc, _ := newTestService(t)

	if !svc.VerifyPIN("1234") {
		t.Error("default pin rejected")
	}
	if svc.VerifyPIN("0000") || svc.VerifyPIN("") {
		t.Error("wrong pin accepted")
	}

	newPIN := "4321"
	if _, err := svc.UpdateSettings(SettingsUpdate{PIN: &newPIN}); err != nil {
		t.Fatal(err)
	}
	if !svc.VerifyPIN("4321") || svc.VerifyPIN("1234") {
		t.Error("pin change not effective")
	}
}

func TestConcurrentAddsBothLand(t *testing.T) {
	svc, _ := newTestService(t)

	const perBarber = 20
	var wg sync.WaitGroup
	for _, barber := range testRoster {
		for i := 0; i < perBarber; i++ {
			wg.Add(1)
			go func(barber string, i int) {
				defer wg.Done()
				s := validService()
				s.Type = fmt.Sprintf("corte-%d", i)
				if _, err := svc.AddService(barber, s); err != nil {
					t.Errorf("AddService(%s): %v", barber, err)
				}
			}(barber, i)
		}
	}
	wg.Wait()

	snap := svc.Snapshot()
	for _, barber := range testRoster {
		if got := len(snap.Barbers[barber]); got != perBarber {
			t.Errorf("%s has %d services, want %d", barber, got, perBarber)
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.AddService("Gabriel", validService()); err != nil {
		t.Fatal(err)
	}

	snap := svc.Snapshot()
	snap.Barbers["Gabriel"][0].Type = "tampered"
	snap.Settings.PIN = "9999"

	fresh := svc.Snapshot()
	if fresh.Barbers["Gabriel"][0].Type != "corte" {
		t.Error("snapshot mutation leaked into the document")
	}
	if !svc.VerifyPIN("1234") {
		t.Error("snapshot mutation changed the pin")
	}
}
