package http

import (
	"errors"
	"html/template"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"

	"fundledger/internal/auth"
	"fundledger/internal/core"
	applog "fundledger/internal/log"
)

// pageData is shared by every full-page template.
type pageData struct {
	Title          string
	Session        *auth.Session
	Projects       []core.Project
	Modes          []core.PaymentMode
	IdempotencyKey string
	Notice         string
	Error          string
	Form           formValues // submitted values on a re-rendered plain post
	View           *dashboardView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "donate.html", pageData{
		Title:          "Make a Donation",
		Session:        s.currentSession(r),
		Projects:       core.Projects(),
		IdempotencyKey: uuid.NewString(),
	})
}

// handleCreateDonation records a public donation. HTMX requests get a
// fragment; plain form posts get the donation page back with a notice.
func (s *Server) handleCreateDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentIntake)

	p := NewRequestBodyParser(w, r)
	in, err := donationInput(p)
	form := submitted(p, donationFields...)
	if err != nil {
		status, msg := http.StatusUnprocessableEntity, msgInvalidAmount
		if errors.Is(err, errMalformed) {
			status, msg = http.StatusBadRequest, msgInvalidRequest
		}
		logger.WarnContext(ctx, "Rejected donation form", applog.FieldError, err)
		s.donationFailure(w, r, status, msg, p.Get("idempotency_key"), form)
		return
	}

	receipt, err := s.intake.RecordDonation(ctx, in)
	if err != nil {
		if isValidationError(err) {
			logger.WarnContext(ctx, "Donation failed validation", applog.FieldError, err)
			s.donationFailure(w, r, http.StatusUnprocessableEntity, validationMessage(err), in.IdempotencyKey, form)
			return
		}
		atomic.AddInt64(&s.metrics.failedWrites, 1)
		logger.ErrorContext(ctx, "Donation append failed",
			applog.FieldError, err,
			applog.FieldProject, in.Project,
			applog.FieldAmountCents, in.Amount.Cents)
		s.donationFailure(w, r, http.StatusInternalServerError, msgDonationFailed, in.IdempotencyKey, form)
		return
	}

	if receipt.Duplicate {
		atomic.AddInt64(&s.metrics.duplicates, 1)
	} else {
		atomic.AddInt64(&s.metrics.donations, 1)
	}

	if !isHTMX(r) {
		s.render(w, r, http.StatusOK, "donate.html", pageData{
			Title:          "Make a Donation",
			Session:        s.currentSession(r),
			Projects:       core.Projects(),
			IdempotencyKey: uuid.NewString(),
			Notice:         msgDonationRecorded,
		})
		return
	}

	b := SuccessResponse(msgDonationRecorded).
		AppendHTML(keyFragment("donation-key", uuid.NewString())).
		TriggerFormReset()
	if !receipt.Duplicate {
		b.TriggerDonationCreated(receipt.ID)
	}
	b.Write(w)
}

// donationFailure keeps the submitted values and idempotency key so a retry
// of the same form cannot create a second record.
func (s *Server) donationFailure(w http.ResponseWriter, r *http.Request, status int, msg, key string, form formValues) {
	if isHTMX(r) {
		errorFor(status, msg).Write(w)
		return
	}
	if key == "" {
		key = uuid.NewString()
	}
	s.render(w, r, status, "donate.html", pageData{
		Title:          "Make a Donation",
		Session:        s.currentSession(r),
		Projects:       core.Projects(),
		IdempotencyKey: key,
		Error:          msg,
		Form:           form,
	})
}

// keyFragment replaces the form's hidden idempotency key out of band, so
// the next submission of the reset form is a new one.
func keyFragment(id, key string) string {
	return `<input type="hidden" id="` + id + `" name="idempotency_key" value="` +
		template.HTMLEscapeString(key) + `" hx-swap-oob="true">`
}
