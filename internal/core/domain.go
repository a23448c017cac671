package core

import (
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the wire format of Transaction.Timestamp. It sorts
// lexicographically in chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	Inflow  Kind = "inflow"
	Outflow Kind = "outflow"
)

const (
	ModeBank  PaymentMode = "bank"
	ModeCash  PaymentMode = "cash"
	ModeCheck PaymentMode = "check"
)

// StatusCompleted is the only status a donation is ever created with.
const StatusCompleted = "completed"

type (
	// Kind tells which stream a record came from. It is never stored.
	Kind string

	PaymentMode string

	Money struct {
		Cents int64
	}

	// Transaction is a donation (Inflow) or an outflow entry.
	Transaction struct {
		ID      string
		Kind    Kind
		Name    string
		Email   string
		Phone   string
		Project string
		Amount  Money

		// Timestamp is set by the writer at submission time, never by the store.
		Timestamp string

		Status string // inflow only

		TransactionNumber string      // outflow only
		Mode              PaymentMode // outflow only
	}
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidKind            = errors.New("invalid transaction kind")
	ErrEmptyName              = errors.New("empty name")
	ErrEmptyEmail             = errors.New("empty email")
	ErrEmptyPhone             = errors.New("empty phone")
	ErrEmptyProject           = errors.New("empty project")
	ErrEmptyTimestamp         = errors.New("empty timestamp")
	ErrInvalidMode            = errors.New("invalid payment mode")
	ErrEmptyTransactionNumber = errors.New("empty transaction number")
	ErrFieldTooLong           = errors.New("field too long (max 200 characters)")
)

const maxFieldLen = 200

func (k Kind) IsValid() bool {
	return k == Inflow || k == Outflow
}

// Label is the name shown for the kind in the ledger table.
func (k Kind) Label() string {
	switch k {
	case Inflow:
		return "Donation"
	case Outflow:
		return "Expense"
	default:
		return string(k)
	}
}

func (m PaymentMode) IsValid() bool {
	switch m {
	case ModeBank, ModeCash, ModeCheck:
		return true
	default:
		return false
	}
}

// PaymentModes lists the accepted outflow channels in display order.
func PaymentModes() []PaymentMode {
	return []PaymentMode{ModeBank, ModeCash, ModeCheck}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m minus o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Time parses the record timestamp. Unparseable values yield the zero time.
func (t Transaction) Time() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(t.Timestamp))
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Validate checks a record before it is appended. It reports every problem
// at once; use errors.Is to test for a specific one.
func (t Transaction) Validate() error {
	var errs []error
	if !t.Kind.IsValid() {
		errs = append(errs, ErrInvalidKind)
	}
	for _, f := range []struct {
		value string
		err   error
	}{
		{t.Name, ErrEmptyName},
		{t.Email, ErrEmptyEmail},
		{t.Phone, ErrEmptyPhone},
		{t.Project, ErrEmptyProject},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, f.err)
		} else if len(f.value) > maxFieldLen {
			errs = append(errs, ErrFieldTooLong)
		}
	}
	if err := t.Amount.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(t.Timestamp) == "" {
		errs = append(errs, ErrEmptyTimestamp)
	}
	if t.Kind == Outflow {
		if strings.TrimSpace(t.TransactionNumber) == "" {
			errs = append(errs, ErrEmptyTransactionNumber)
		} else if len(t.TransactionNumber) > maxFieldLen {
			errs = append(errs, ErrFieldTooLong)
		}
		if !t.Mode.IsValid() {
			errs = append(errs, ErrInvalidMode)
		}
	}
	return errors.Join(errs...)
}

// FormatTimestamp renders a time in TimestampLayout (UTC, milliseconds).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
