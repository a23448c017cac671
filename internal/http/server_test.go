package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"fundledger/internal/auth"
	"fundledger/internal/core"
	"fundledger/internal/ledger"
	"fundledger/internal/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeIntake struct {
	mu        sync.Mutex
	donations []services.DonationInput
	outflows  []services.OutflowInput
	receipt   services.Receipt
	err       error
}

func (f *fakeIntake) RecordDonation(_ context.Context, in services.DonationInput) (services.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.donations = append(f.donations, in)
	return f.receipt, f.err
}

func (f *fakeIntake) RecordOutflow(_ context.Context, in services.OutflowInput) (services.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outflows = append(f.outflows, in)
	return f.receipt, f.err
}

type fakeDashboard struct {
	view services.Dashboard
	err  error
}

func (f *fakeDashboard) Load(context.Context) (services.Dashboard, error) {
	return f.view, f.err
}

type fakeProvider struct {
	profile auth.Profile
	err     error
}

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (f *fakeProvider) Exchange(context.Context, string) (auth.Profile, error) {
	return f.profile, f.err
}

var member = auth.Profile{Subject: "g-1", Email: "ada@example.org", EmailVerified: true, Name: "Ada"}

type testServer struct {
	*Server
	intake    *fakeIntake
	dashboard *fakeDashboard
	provider  *fakeProvider
	sessions  *auth.SessionManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	sessions, err := auth.NewSessionManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	provider := &fakeProvider{profile: member}
	ts := &testServer{
		intake:    &fakeIntake{receipt: services.Receipt{ID: "rec-1"}},
		dashboard: &fakeDashboard{view: sampleDashboard()},
		provider:  provider,
		sessions:  sessions,
	}
	srv, err := NewServer(Options{
		Auth:      auth.New(provider, sessions, []string{member.Email}),
		Intake:    ts.intake,
		Dashboard: ts.dashboard,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	ts.Server = srv
	return ts
}

func sampleDashboard() services.Dashboard {
	donation := core.Transaction{
		ID: "d1", Kind: core.Inflow, Name: "Grace", Email: "grace@example.org", Phone: "555-0100",
		Project: "education", Amount: core.Money{Cents: 1250}, Timestamp: "2024-03-05T10:00:00.000Z",
	}
	outflow := core.Transaction{
		ID: "o1", Kind: core.Outflow, Name: "Books Ltd", Email: "books@example.org", Phone: "555-0101",
		Project: "education", Amount: core.Money{Cents: 250}, Timestamp: "2024-03-04T10:00:00.000Z",
		TransactionNumber: "TX-1", Mode: core.ModeBank,
	}
	entries := ledger.BuildRecentLedger([]core.Transaction{donation}, []core.Transaction{outflow}, 10)
	return services.Dashboard{
		Entries:      entries,
		Summary:      ledger.ComputeSummary([]core.Transaction{donation}, []core.Transaction{outflow}),
		Projects:     ledger.AggregateByProject([]core.Transaction{donation}, core.ProjectCodes()),
		SummaryBound: 10,
		LoadedAt:     time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC),
	}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.Handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) signedIn(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	sess, err := ts.sessions.Issue(member, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: sess.Token})
	return req
}

func formRequest(target string, values url.Values, htmx bool) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return req
}

func donationForm() url.Values {
	return url.Values{
		"name":            {"Grace"},
		"email":           {"grace@example.org"},
		"phone":           {"555-0100"},
		"project":         {"education"},
		"amount":          {"12.50"},
		"idempotency_key": {"key-1"},
	}
}

func outflowForm() url.Values {
	return url.Values{
		"name":               {"Books Ltd"},
		"email":              {"books@example.org"},
		"phone":              {"555-0101"},
		"project":            {"education"},
		"amount":             {"2.50"},
		"transaction_number": {"TX-1"},
		"mode":               {"bank"},
		"idempotency_key":    {"key-2"},
	}
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	if _, err := NewServer(Options{}); err == nil {
		t.Fatal("NewServer() error = nil, want error")
	}
}

func TestDonationPage(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Make a Donation", `id="donation-key"`, "Healthcare Initiative", `href="/login"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header not set")
	}
}

func TestCreateDonation(t *testing.T) {
	tests := []struct {
		name        string
		receipt     services.Receipt
		err         error
		form        url.Values
		wantStatus  int
		wantBody    string
		wantTrigger string
		noTrigger   string
	}{
		{
			name:        "recorded",
			receipt:     services.Receipt{ID: "rec-1"},
			form:        donationForm(),
			wantStatus:  http.StatusOK,
			wantBody:    msgDonationRecorded,
			wantTrigger: `"donation:created":{"id":"rec-1"}`,
		},
		{
			name:       "duplicate",
			receipt:    services.Receipt{ID: "rec-1", Duplicate: true},
			form:       donationForm(),
			wantStatus: http.StatusOK,
			wantBody:   msgDonationRecorded,
			noTrigger:  "donation:created",
		},
		{
			name: "invalid amount",
			form: func() url.Values {
				v := donationForm()
				v.Set("amount", "-3")
				return v
			}(),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   msgInvalidAmount,
		},
		{
			name:       "validation error",
			err:        errors.Join(core.ErrEmptyName, core.ErrEmptyPhone),
			form:       donationForm(),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "name is required, phone is required",
		},
		{
			name:       "unknown project",
			err:        fmt.Errorf("%w: %q", services.ErrUnknownProject, "space"),
			form:       donationForm(),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "choose a project from the list",
		},
		{
			name:       "store failure",
			err:        errors.New("connection refused"),
			form:       donationForm(),
			wantStatus: http.StatusInternalServerError,
			wantBody:   msgDonationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.intake.receipt, ts.intake.err = tt.receipt, tt.err

			w := ts.do(formRequest("/donations", tt.form, true))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", w.Body.String(), tt.wantBody)
			}
			trigger := w.Header().Get("HX-Trigger")
			if tt.wantTrigger != "" && !strings.Contains(trigger, tt.wantTrigger) {
				t.Errorf("HX-Trigger = %q, want %q", trigger, tt.wantTrigger)
			}
			if tt.noTrigger != "" && strings.Contains(trigger, tt.noTrigger) {
				t.Errorf("HX-Trigger = %q, did not want %q", trigger, tt.noTrigger)
			}
		})
	}
}

func TestCreateDonation_RefreshesIdempotencyKey(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(formRequest("/donations", donationForm(), true))

	body := w.Body.String()
	if !strings.Contains(body, `id="donation-key"`) || !strings.Contains(body, `hx-swap-oob="true"`) {
		t.Errorf("response does not replace the idempotency key: %s", body)
	}
	if strings.Contains(body, `value="key-1"`) {
		t.Error("response reused the submitted idempotency key")
	}
	if got := ts.intake.donations[0]; got.IdempotencyKey != "key-1" || got.Amount.Cents != 1250 {
		t.Errorf("intake got %+v", got)
	}
}

func TestCreateDonation_PlainForm(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(formRequest("/donations", donationForm(), false))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Thank you for your donation!") {
		t.Error("plain form post did not render the notice")
	}
}

func TestCreateDonation_PlainFormFailureKeepsInput(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		amount     string
		wantStatus int
		wantMsg    string
	}{
		{"store failure", errors.New("store down"), "12.50", http.StatusInternalServerError, msgDonationFailed},
		{"invalid amount", nil, "-3", http.StatusUnprocessableEntity, msgInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.intake.err = tt.err
			form := donationForm()
			form.Set("amount", tt.amount)

			w := ts.do(formRequest("/donations", form, false))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := w.Body.String()
			for _, want := range []string{
				tt.wantMsg,
				`value="Grace"`,
				`value="grace@example.org"`,
				`value="555-0100"`,
				`value="` + tt.amount + `"`,
				`value="education" selected`,
				`value="key-1"`,
			} {
				if !strings.Contains(body, want) {
					t.Errorf("re-rendered page missing %q", want)
				}
			}
		})
	}
}

func TestCreateDonation_RateLimited(t *testing.T) {
	ts := newTestServer(t)
	var last *httptest.ResponseRecorder
	for i := 0; i < 31; i++ {
		last = ts.do(formRequest("/donations", donationForm(), true))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}
	if !strings.Contains(last.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Errorf("HX-Trigger = %q, want error notification", last.Header().Get("HX-Trigger"))
	}

	// Reads are never limited.
	if w := ts.do(httptest.NewRequest(http.MethodGet, "/", nil)); w.Code != http.StatusOK {
		t.Errorf("GET after limit = %d, want 200", w.Code)
	}
}

func TestDashboard_RequiresSession(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"page redirects", httptest.NewRequest(http.MethodGet, "/dashboard", nil), http.StatusSeeOther},
		{"api is unauthorized", httptest.NewRequest(http.MethodGet, "/api/ledger", nil), http.StatusUnauthorized},
		{"outflow is redirected", formRequest("/outflows", outflowForm(), false), http.StatusSeeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(tt.req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
	if len(ts.intake.outflows) != 0 {
		t.Error("outflow recorded without a session")
	}
}

func TestDashboard_Renders(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(ts.signedIn(t, httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"$12.50", "$2.50", "$10.00",
		"Mar 5, 2024", "Grace", "Books Ltd", "Education Support",
		`id="outflow-key"`, "Bank Transfer", "Logout",
		"Totals over the 10 most recent donations and outflows",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(body, "grace@example.org") {
		t.Error("dashboard leaked a donor email")
	}
}

func TestDashboardContent_LoadFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.dashboard.err = errors.New("firestore unavailable")

	w := ts.do(ts.signedIn(t, httptest.NewRequest(http.MethodGet, "/ui/dashboard", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, msgLoadFailed) {
		t.Error("error state not rendered")
	}
	if !strings.Contains(body, "$0.00") {
		t.Error("error state should show zero totals")
	}
	if strings.Contains(body, "Grace") {
		t.Error("error state rendered ledger rows")
	}
}

func TestLedgerAPI(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(ts.signedIn(t, httptest.NewRequest(http.MethodGet, "/api/ledger", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "example.org") {
		t.Error("API exposed contact details")
	}

	var resp ledgerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 2 || resp.Entries[0].ID != "d1" || resp.Entries[0].Type != "inflow" {
		t.Errorf("entries = %+v", resp.Entries)
	}
	if resp.Summary.BalanceCents != 1000 || resp.Summary.Bound != 10 {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if len(resp.Projects) != len(core.ProjectCodes()) || resp.Projects[0].AmountCents != 1250 {
		t.Errorf("projects = %+v", resp.Projects)
	}
}

func TestLedgerAPI_LoadFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.dashboard.err = errors.New("boom")

	w := ts.do(ts.signedIn(t, httptest.NewRequest(http.MethodGet, "/api/ledger", nil)))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgLoadFailed) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestCreateOutflow(t *testing.T) {
	ts := newTestServer(t)
	ts.intake.receipt = services.Receipt{ID: "out-1"}

	w := ts.do(ts.signedIn(t, formRequest("/outflows", outflowForm(), true)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"outflow:created":{"id":"out-1"}`) || !strings.Contains(trigger, "form:reset") {
		t.Errorf("HX-Trigger = %q", trigger)
	}
	got := ts.intake.outflows[0]
	if got.Mode != core.ModeBank || got.TransactionNumber != "TX-1" || got.Amount.Cents != 250 {
		t.Errorf("intake got %+v", got)
	}
}

func TestCreateOutflow_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", core.ErrInvalidMode, http.StatusUnprocessableEntity, "choose a payment mode"},
		{"store", errors.New("disk full"), http.StatusInternalServerError, msgOutflowFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.intake.err = tt.err

			w := ts.do(ts.signedIn(t, formRequest("/outflows", outflowForm(), true)))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if strings.Contains(w.Header().Get("HX-Trigger"), "outflow:created") {
				t.Error("failed outflow triggered a dashboard reload")
			}
		})
	}
}

func TestCreateOutflow_PlainFormFailureKeepsInput(t *testing.T) {
	ts := newTestServer(t)
	ts.intake.err = errors.New("disk full")

	w := ts.do(ts.signedIn(t, formRequest("/outflows", outflowForm(), false)))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		msgOutflowFailed,
		"Record Outflow Transaction",
		`value="Books Ltd"`,
		`value="books@example.org"`,
		`value="2.50"`,
		`value="TX-1"`,
		`value="education" selected`,
		`value="bank" selected`,
		`value="key-2"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("re-rendered dashboard missing %q", want)
		}
	}
}

func TestGoogleSignIn_SetsState(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.StateCookie {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatal("state cookie not set")
	}
	if loc := w.Header().Get("Location"); !strings.HasSuffix(loc, "state="+state) {
		t.Errorf("Location = %q, want state %q", loc, state)
	}
}

func callbackRequest(state, cookieState, code string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state="+state+"&code="+code, nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: auth.StateCookie, Value: cookieState})
	}
	return req
}

func TestAuthCallback(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		profile    auth.Profile
		err        error
		wantStatus int
	}{
		{"success", callbackRequest("s1", "s1", "c1"), member, nil, http.StatusSeeOther},
		{"state mismatch", callbackRequest("s1", "s2", "c1"), member, nil, http.StatusBadRequest},
		{"missing state cookie", callbackRequest("s1", "", "c1"), member, nil, http.StatusBadRequest},
		{"not a member", callbackRequest("s1", "s1", "c1"),
			auth.Profile{Email: "eve@example.org", EmailVerified: true}, nil, http.StatusUnauthorized},
		{"provider failure", callbackRequest("s1", "s1", "c1"), member, errors.New("token endpoint down"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.provider.profile, ts.provider.err = tt.profile, tt.err

			w := ts.do(tt.req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var session string
			for _, c := range w.Result().Cookies() {
				if c.Name == auth.SessionCookie {
					session = c.Value
				}
			}
			if tt.wantStatus == http.StatusSeeOther {
				if session == "" {
					t.Error("session cookie not set")
				}
				if loc := w.Header().Get("Location"); loc != "/dashboard" {
					t.Errorf("Location = %q, want /dashboard", loc)
				}
				return
			}
			if session != "" {
				t.Error("session cookie set on failure")
			}
			if !strings.Contains(w.Body.String(), auth.SignInFailedMessage) {
				t.Error("failure page missing sign-in message")
			}
		})
	}
}

func TestLogin_RedirectsSignedInMember(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(ts.signedIn(t, httptest.NewRequest(http.MethodGet, "/login", nil)))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/dashboard" {
		t.Errorf("status = %d location = %q", w.Code, w.Header().Get("Location"))
	}

	w = ts.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sign in with Google") {
		t.Errorf("login page status = %d", w.Code)
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	req := ts.signedIn(t, httptest.NewRequest(http.MethodPost, "/logout", nil))
	req.Header.Set("HX-Request", "true")

	w := ts.do(req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("HX-Redirect") != "/" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}

	m := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	if !strings.Contains(m, "sign_outs_total 1") {
		t.Errorf("sign-out not counted:\n%s", m)
	}
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
	if w := ts.do(httptest.NewRequest(http.MethodGet, "/readyz", nil)); w.Code != http.StatusOK {
		t.Errorf("readyz = %d", w.Code)
	}

	ts.ready = func(context.Context) error { return errors.New("backend down") }
	w := ts.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing backend = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "backend down") {
		t.Errorf("readyz body = %s", w.Body.String())
	}
}

func TestMetrics_CountsSubmissions(t *testing.T) {
	ts := newTestServer(t)
	ts.do(formRequest("/donations", donationForm(), true))

	body := ts.do(httptest.NewRequest(http.MethodGet, "/metrics", nil)).Body.String()
	for _, want := range []string{"donations_recorded_total 1", "# TYPE http_requests_total counter", "suspicious_requests_total 0"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestTraceMethodRejected(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodTrace, "/", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("Cache-Control") == "" {
		t.Error("static asset missing Cache-Control")
	}
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("HX-Request", "true")
	w := ts.do(req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), `class="error"`) {
		t.Errorf("HTMX 404 body = %q", w.Body.String())
	}
}
