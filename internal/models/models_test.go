package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCategoryIsValid(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		want     bool
	}{
		{name: "food", category: "Food", want: true},
		{name: "transportation", category: "Transportation", want: true},
		{name: "others", category: "Others", want: true},
		{name: "lower case is rejected", category: "food", want: false},
		{name: "unknown", category: "Travel", want: false},
		{name: "empty", category: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.category.IsValid(); got != tt.want {
				t.Errorf("Category(%q).IsValid() = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestNewFamilyIsEmpty(t *testing.T) {
	f := NewFamily("Smiths", "hash")

	if f.ID == "" {
		t.Fatal("expected an ID")
	}
	if len(f.Members) != 0 {
		t.Errorf("expected no members, got %d", len(f.Members))
	}
	if !f.TotalIncome.IsZero() || !f.TotalExpenses.IsZero() {
		t.Errorf("expected zero totals, got %s / %s", f.TotalIncome, f.TotalExpenses)
	}
	if f.CreatedAt.IsZero() || !f.CreatedAt.Equal(f.UpdatedAt) {
		t.Errorf("expected matching timestamps, got %v / %v", f.CreatedAt, f.UpdatedAt)
	}
}

func TestFindAndRemoveMember(t *testing.T) {
	f := NewFamily("Smiths", "hash")
	alice := NewMember("Alice", true, decimal.NewFromInt(5000))
	bob := NewMember("Bob", false, decimal.Zero)
	f.Members = append(f.Members, alice, bob)

	if m := f.FindMember(bob.ID); m == nil || m.Name != "Bob" {
		t.Fatalf("FindMember(bob) = %+v", m)
	}
	if m := f.FindMember("missing"); m != nil {
		t.Fatalf("FindMember(missing) = %+v, want nil", m)
	}

	if !f.RemoveMember(alice.ID) {
		t.Fatal("RemoveMember(alice) = false")
	}
	if f.RemoveMember(alice.ID) {
		t.Fatal("second RemoveMember(alice) = true")
	}
	if len(f.Members) != 1 || f.Members[0].ID != bob.ID {
		t.Fatalf("unexpected members after removal: %+v", f.Members)
	}
}

func TestFamilyJSONHidesPasswordHash(t *testing.T) {
	f := NewFamily("Smiths", "$2a$10$secret")
	f.Members = append(f.Members, NewMember("Alice", true, decimal.RequireFromString("5000.50")))
	Recalculate(f)

	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(raw)

	if strings.Contains(body, "secret") || strings.Contains(body, "password") {
		t.Errorf("password hash leaked into JSON: %s", body)
	}
	if !strings.Contains(body, `"totalIncome":5000.5`) {
		t.Errorf("expected numeric totalIncome, got %s", body)
	}
}

func TestFamilyRecordKeepsPasswordHash(t *testing.T) {
	f := NewFamily("Smiths", "$2a$10$secret")
	raw, err := json.Marshal(NewFamilyRecord(f))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(raw), `"passwordHash":"$2a$10$secret"`) {
		t.Fatalf("record JSON lost the hash: %s", raw)
	}

	rec := FamilyRecord{Family: &Family{}}
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	got := rec.ToFamily()
	if got.PasswordHash != f.PasswordHash || got.ID != f.ID || got.Name != "Smiths" {
		t.Errorf("ToFamily() = %+v", got)
	}
}
