package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "whole number", input: "28", want: 2800},
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "single decimal digit", input: "5.5", want: 550},
		{name: "rounds half up", input: "12.345", want: 1235},
		{name: "rounds down", input: "12.344", want: 1234},
		{name: "leading dot", input: ".50", want: 50},
		{name: "empty", input: "", wantErr: true},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-5", wantErr: true},
		{name: "not a number", input: "abc", wantErr: true},
		{name: "two separators", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) expected error, got %d", tt.input, got)
				}
				if !IsValidation(err) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := Money{Cents: 2800}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "2800" {
		t.Errorf("expected plain integer, got %s", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != m {
		t.Errorf("round trip changed value: %v -> %v", m, back)
	}

	if err := json.Unmarshal([]byte(`"28.00"`), &back); err == nil {
		t.Error("expected error for non-integer money")
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 2800, want: "R$ 28,00"},
		{cents: 1505, want: "R$ 15,05"},
		{cents: 5, want: "R$ 0,05"},
		{cents: -900, want: "-R$ 9,00"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 1000}
	b := Money{Cents: 300}
	if got := a.Add(b); got.Cents != 1300 {
		t.Errorf("Add = %d, want 1300", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 700 {
		t.Errorf("Sub = %d, want 700", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -700 {
		t.Errorf("Sub below zero = %d, want -700", got.Cents)
	}
}
