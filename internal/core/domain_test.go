package core

import (
	"errors"
	"testing"
	"time"
)

func validDonation() Transaction {
	return Transaction{
		Kind:      Inflow,
		Name:      "Ada",
		Email:     "ada@example.org",
		Phone:     "555-0100",
		Project:   "education",
		Amount:    Money{Cents: 10000},
		Timestamp: "2024-03-01T10:00:00.000Z",
		Status:    StatusCompleted,
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero should be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validDonation().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	outflow := validDonation()
	outflow.Kind = Outflow
	outflow.Status = ""
	outflow.TransactionNumber = "TX-1"
	outflow.Mode = ModeBank
	if err := outflow.Validate(); err != nil {
		t.Fatalf("expected valid outflow, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"missing kind", func(tx *Transaction) { tx.Kind = "" }, ErrInvalidKind},
		{"blank name", func(tx *Transaction) { tx.Name = "  " }, ErrEmptyName},
		{"blank email", func(tx *Transaction) { tx.Email = "" }, ErrEmptyEmail},
		{"blank phone", func(tx *Transaction) { tx.Phone = "" }, ErrEmptyPhone},
		{"blank project", func(tx *Transaction) { tx.Project = "" }, ErrEmptyProject},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"no timestamp", func(tx *Transaction) { tx.Timestamp = "" }, ErrEmptyTimestamp},
		{"outflow without number", func(tx *Transaction) {
			tx.Kind, tx.Mode = Outflow, ModeCash
		}, ErrEmptyTransactionNumber},
		{"outflow bad mode", func(tx *Transaction) {
			tx.Kind, tx.TransactionNumber, tx.Mode = Outflow, "TX-2", "wire"
		}, ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validDonation()
			tt.mutate(&tx)
			err := tx.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTransactionValidateReportsAll(t *testing.T) {
	err := Transaction{Kind: Inflow}.Validate()
	for _, want := range []error{ErrEmptyName, ErrEmptyEmail, ErrEmptyPhone, ErrEmptyProject, ErrEmptyTimestamp} {
		if !errors.Is(err, want) {
			t.Errorf("expected %v in %v", want, err)
		}
	}
}

func TestTransactionTime(t *testing.T) {
	tx := validDonation()
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := tx.Time(); !got.Equal(want) {
		t.Fatalf("Time() = %v, want %v", got, want)
	}
	tx.Timestamp = "yesterday"
	if got := tx.Time(); !got.IsZero() {
		t.Fatalf("unparseable timestamp should yield zero time, got %v", got)
	}
	ts := FormatTimestamp(time.Date(2024, 3, 1, 11, 0, 0, 5e6, time.FixedZone("x", 3600)))
	if ts != "2024-03-01T10:00:00.005Z" {
		t.Fatalf("FormatTimestamp = %q", ts)
	}
}

func TestKindLabelAndProjects(t *testing.T) {
	if Inflow.Label() != "Donation" || Outflow.Label() != "Expense" {
		t.Fatalf("unexpected labels %q %q", Inflow.Label(), Outflow.Label())
	}
	if got := ProjectLabel("healthcare"); got != "Healthcare Initiative" {
		t.Fatalf("ProjectLabel(healthcare) = %q", got)
	}
	if got := ProjectLabel("unknown"); got != "unknown" {
		t.Fatalf("unknown code should render raw, got %q", got)
	}
	if len(ProjectCodes()) != 4 || ProjectCodes()[0] != "education" {
		t.Fatalf("unexpected catalogue %v", ProjectCodes())
	}
}
