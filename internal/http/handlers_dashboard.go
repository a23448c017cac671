package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fundledger/internal/auth"
	"fundledger/internal/core"
	"fundledger/internal/ledger"
	applog "fundledger/internal/log"
	"fundledger/internal/services"
)

// dashboardView is the explicit state the dashboard templates render. A
// failed load yields the zero view plus Error.
type dashboardView struct {
	services.Dashboard
	Error string
}

// SummaryNote explains which records the totals cover.
func (v dashboardView) SummaryNote() string {
	if v.SummaryBound <= 0 {
		return "All-time totals"
	}
	return "Totals over the " + strconv.Itoa(v.SummaryBound) + " most recent donations and outflows"
}

func (s *Server) loadView(r *http.Request) dashboardView {
	ctx := r.Context()
	atomic.AddInt64(&s.metrics.dashboardLoads, 1)

	d, err := s.dashboard.Load(ctx)
	if err != nil {
		atomic.AddInt64(&s.metrics.dashboardFailures, 1)
		applog.FromContext(ctx).WithComponent(applog.ComponentDashboard).
			ErrorContext(ctx, "Dashboard load failed", applog.FieldError, err)
		return dashboardView{
			Dashboard: services.Dashboard{Projects: ledger.AggregateByProject(nil, core.ProjectCodes())},
			Error:     msgLoadFailed,
		}
	}
	return dashboardView{Dashboard: d}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	view := s.loadView(r)
	s.render(w, r, http.StatusOK, "dashboard.html", pageData{
		Title:          "Member Dashboard",
		Session:        &sess,
		Projects:       core.Projects(),
		Modes:          core.PaymentModes(),
		IdempotencyKey: uuid.NewString(),
		View:           &view,
	})
}

// handleDashboardContent renders the summary, chart and ledger partial.
// Load failures still answer 200 so HTMX swaps in the error state.
func (s *Server) handleDashboardContent(w http.ResponseWriter, r *http.Request) {
	view := s.loadView(r)
	s.render(w, r, http.StatusOK, "dashboard_content", view)
}

type ledgerEntryJSON struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	TypeLabel    string `json:"type_label"`
	Name         string `json:"name"`
	Project      string `json:"project"`
	ProjectLabel string `json:"project_label"`
	AmountCents  int64  `json:"amount_cents"`
	Amount       string `json:"amount"`
	Timestamp    string `json:"timestamp"`
}

type projectTotalJSON struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amount_cents"`
}

type ledgerResponse struct {
	Entries []ledgerEntryJSON `json:"entries"`
	Summary struct {
		TotalInflowCents  int64 `json:"total_inflow_cents"`
		TotalOutflowCents int64 `json:"total_outflow_cents"`
		BalanceCents      int64 `json:"balance_cents"`
		// Bound is the per-stream record bound; 0 means all-time.
		Bound int `json:"bound"`
	} `json:"summary"`
	Projects []projectTotalJSON `json:"projects"`
	LoadedAt time.Time          `json:"loaded_at"`
}

// handleLedgerAPI serves the dashboard view as JSON. Contact details other
// than the name are not exposed.
func (s *Server) handleLedgerAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	view := s.loadView(r)
	if view.Error != "" {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": view.Error})
		return
	}

	resp := ledgerResponse{
		Entries:  make([]ledgerEntryJSON, 0, len(view.Entries)),
		Projects: make([]projectTotalJSON, 0, len(view.Projects)),
		LoadedAt: view.LoadedAt,
	}
	for _, e := range view.Entries {
		resp.Entries = append(resp.Entries, ledgerEntryJSON{
			ID:           e.ID,
			Type:         string(e.Kind),
			TypeLabel:    e.Kind.Label(),
			Name:         e.Name,
			Project:      e.Project,
			ProjectLabel: core.ProjectLabel(e.Project),
			AmountCents:  e.Amount.Cents,
			Amount:       e.Amount.Decimal(),
			Timestamp:    e.Timestamp,
		})
	}
	resp.Summary.TotalInflowCents = view.Summary.TotalInflow.Cents
	resp.Summary.TotalOutflowCents = view.Summary.TotalOutflow.Cents
	resp.Summary.BalanceCents = view.Summary.Balance.Cents
	resp.Summary.Bound = view.SummaryBound
	for _, p := range view.Projects {
		resp.Projects = append(resp.Projects, projectTotalJSON{Code: p.Code, Label: p.Label, AmountCents: p.Amount.Cents})
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// handleCreateOutflow records an outflow from the member form and makes
// the dashboard partial reload.
func (s *Server) handleCreateOutflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentIntake)

	p := NewRequestBodyParser(w, r)
	in, err := outflowInput(p)
	if err != nil {
		status, msg := http.StatusUnprocessableEntity, msgInvalidAmount
		if errors.Is(err, errMalformed) {
			status, msg = http.StatusBadRequest, msgInvalidRequest
			logger.WarnContext(ctx, "Malformed outflow form", applog.FieldError, err)
		}
		s.outflowFailure(w, r, status, msg, p)
		return
	}

	receipt, err := s.intake.RecordOutflow(ctx, in)
	if err != nil {
		if isValidationError(err) {
			logger.WarnContext(ctx, "Outflow failed validation", applog.FieldError, err)
			s.outflowFailure(w, r, http.StatusUnprocessableEntity, validationMessage(err), p)
			return
		}
		atomic.AddInt64(&s.metrics.failedWrites, 1)
		logger.ErrorContext(ctx, "Outflow append failed",
			applog.FieldError, err,
			applog.FieldProject, in.Project,
			applog.FieldAmountCents, in.Amount.Cents)
		s.outflowFailure(w, r, http.StatusInternalServerError, msgOutflowFailed, p)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		if receipt.Duplicate {
			atomic.AddInt64(&s.metrics.duplicates, 1)
		} else {
			atomic.AddInt64(&s.metrics.outflows, 1)
		}
		return
	}

	if receipt.Duplicate {
		atomic.AddInt64(&s.metrics.duplicates, 1)
		SuccessResponse(msgDuplicateRecorded).
			AppendHTML(keyFragment("outflow-key", uuid.NewString())).
			TriggerFormReset().
			Write(w)
		return
	}

	atomic.AddInt64(&s.metrics.outflows, 1)
	SuccessResponse(msgOutflowRecorded).
		AppendHTML(keyFragment("outflow-key", uuid.NewString())).
		TriggerFormReset().
		TriggerOutflowCreated(receipt.ID).
		Write(w)
}

// outflowFailure answers HTMX with an error fragment. Plain posts get the
// dashboard back with the outflow form still filled in.
func (s *Server) outflowFailure(w http.ResponseWriter, r *http.Request, status int, msg string, p *RequestBodyParser) {
	if isHTMX(r) {
		errorFor(status, msg).Write(w)
		return
	}
	key := p.Get("idempotency_key")
	if key == "" {
		key = uuid.NewString()
	}
	sess, _ := auth.SessionFromContext(r.Context())
	view := s.loadView(r)
	s.render(w, r, status, "dashboard.html", pageData{
		Title:          "Member Dashboard",
		Session:        &sess,
		Projects:       core.Projects(),
		Modes:          core.PaymentModes(),
		IdempotencyKey: key,
		Error:          msg,
		Form:           submitted(p, outflowFields...),
		View:           &view,
	})
}
