package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"barbapro/internal/core"
	"barbapro/internal/log"
)

var testRoster = []string{"Gabriel", "Wagner"}

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := NewFileStore(path, testRoster, testLogger())

	ledger, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ledger.HasBarber("Gabriel") || !ledger.HasBarber("Wagner") {
		t.Error("fresh ledger missing roster barbers")
	}
	if ledger.Settings.PIN != "1234" {
		t.Errorf("fresh ledger pin = %q", ledger.Settings.PIN)
	}

	// Fresh document must have been persisted immediately.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("fresh ledger not written to disk: %v", err)
	}
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{{{{"},
		{name: "missing config", content: `{"Gabriel":[]}`},
		{name: "wrong shape", content: `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ledger.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			store := NewFileStore(path, testRoster, testLogger())

			ledger, err := store.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !ledger.HasBarber("Gabriel") {
				t.Error("corrupt file did not reset to defaults")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			var reread core.Ledger
			if err := json.Unmarshal(data, &reread); err != nil {
				t.Errorf("replacement file unreadable: %v", err)
			}
		})
	}
}

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	store := NewFileStore(path, testRoster, testLogger())

	ledger, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	ledger.Expenses = append(ledger.Expenses, core.Expense{
		ID:          "e1",
		Description: "aluguel",
		Value:       core.Money{Cents: 120000},
		Date:        mustDate(t, "2025-03-01"),
	})
	if err := store.Save(ledger); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	back, err := store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(back.Expenses) != 1 || back.Expenses[0].Description != "aluguel" {
		t.Errorf("expense lost in round trip: %+v", back.Expenses)
	}

	// Saving the reloaded document must be byte-identical.
	if err := store.Save(back); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("save(load()) changed bytes")
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "ledger.json"), testRoster, testLogger())

	if _, err := store.Load(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "ledger.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("unexpected files in dir: %v", names)
	}
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}
