package http

import (
	"errors"
	"html/template"
	"strings"
	"time"

	"fundledger/internal/core"
	"fundledger/internal/services"
)

// User-facing messages. Handlers log the underlying error and show one of
// these.
const (
	msgDonationRecorded  = "Thank you for your donation! A confirmation email will be sent shortly."
	msgDonationFailed    = "Failed to submit donation. Please try again."
	msgOutflowRecorded   = "Outflow transaction recorded"
	msgOutflowFailed     = "Failed to record outflow transaction"
	msgLoadFailed        = "Failed to load transactions"
	msgInvalidRequest    = "Invalid request format"
	msgInvalidAmount     = "Please enter a valid, non-negative amount"
	msgRateLimited       = "Too many submissions. Please wait a minute and try again."
	msgDuplicateRecorded = "This submission was already recorded."
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// validationMessage turns joined validation errors into one sentence
// naming every problem, in a fixed order.
func validationMessage(err error) string {
	checks := []struct {
		target error
		text   string
	}{
		{core.ErrEmptyName, "name is required"},
		{core.ErrEmptyEmail, "email is required"},
		{core.ErrEmptyPhone, "phone is required"},
		{core.ErrEmptyProject, "project is required"},
		{services.ErrUnknownProject, "choose a project from the list"},
		{core.ErrInvalidAmount, "amount must be a non-negative number"},
		{core.ErrEmptyTransactionNumber, "transaction number is required"},
		{core.ErrInvalidMode, "choose a payment mode"},
		{core.ErrFieldTooLong, "fields are limited to 200 characters"},
	}
	var parts []string
	for _, c := range checks {
		if errors.Is(err, c.target) {
			parts = append(parts, c.text)
		}
	}
	if len(parts) == 0 {
		return "Please check the form and try again."
	}
	return "Please correct the following: " + strings.Join(parts, ", ") + "."
}

// isValidationError reports whether err is a client-side input problem.
func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyName, core.ErrEmptyEmail, core.ErrEmptyPhone,
		core.ErrEmptyProject, core.ErrInvalidAmount, core.ErrInvalidMode,
		core.ErrEmptyTransactionNumber, core.ErrFieldTooLong,
		core.ErrInvalidKind, core.ErrEmptyTimestamp, services.ErrUnknownProject,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// displayDate renders a record timestamp as a short date, or the raw value
// when it does not parse.
func displayDate(ts string) string {
	t := core.Transaction{Timestamp: ts}.Time()
	if t.IsZero() {
		return ts
	}
	return t.UTC().Format("Jan 2, 2006")
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":        func(m core.Money) string { return m.String() },
		"date":         displayDate,
		"projectLabel": core.ProjectLabel,
		"kindLabel":    func(k core.Kind) string { return k.Label() },
		"modeLabel":    modeLabel,
		"isInflow":     func(k core.Kind) bool { return k == core.Inflow },
		"year":         func() int { return time.Now().Year() },
	}
}

func modeLabel(m core.PaymentMode) string {
	switch m {
	case core.ModeBank:
		return "Bank Transfer"
	case core.ModeCash:
		return "Cash"
	case core.ModeCheck:
		return "Check"
	default:
		return string(m)
	}
}
