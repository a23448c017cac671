package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fundledger/internal/core"
)

func newBufferLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{
		Component: component,
		Handler:   slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
}

func TestLogger_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, "")

	l.Info("hello", "k", "v")
	l.WithComponent(ComponentAuth).Warn("careful")

	out := buf.String()
	for _, want := range []string{"component=app", "k=v", "component=auth", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Count(out, "component=") != 2 {
		t.Errorf("each line should carry exactly one component field: %q", out)
	}
}

func TestToSlice_SortedKeys(t *testing.T) {
	got := NewFields().WithOperation(OpAppend).WithComponent(ComponentIntake).ToSlice()
	want := []any{FieldComponent, ComponentIntake, FieldOperation, OpAppend}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slice[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWithTransaction_OmitsContactDetails(t *testing.T) {
	f := NewFields().WithTransaction(core.Transaction{
		ID: "abc", Kind: core.Inflow, Name: "Ada", Phone: "555",
		Project: "education", Amount: core.Money{Cents: 2500},
	})
	if f[FieldTransactionID] != "abc" || f[FieldAmountCents] != int64(2500) || f[FieldKind] != "inflow" {
		t.Errorf("unexpected fields %v", f)
	}
	for _, v := range f {
		if v == "Ada" || v == "555" {
			t.Errorf("contact detail leaked into log fields: %v", f)
		}
	}
}

func TestFromContext(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("fallback component = %q", l.Component())
	}

	var buf bytes.Buffer
	base := newBufferLogger(&buf, ComponentHTTP)
	var seen *Logger
	h := Middleware(base)(ComponentMiddleware(ComponentDashboard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil || seen.Component() != ComponentDashboard {
		t.Fatalf("component logger not installed: %+v", seen)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(newBufferLogger(&buf, ComponentApp))
	ctx := context.Background()

	sl.LogTransactionRecorded(ctx, "donations", core.Transaction{ID: "d1", Kind: core.Inflow, Amount: core.Money{Cents: 100}})
	sl.LogError(ctx, "append failed", errors.New("boom"), ComponentStorage, OpAppend, nil)

	req := httptest.NewRequest(http.MethodPost, "/donations", nil)
	sl.LogHTTPEnd(ctx, req, http.StatusInternalServerError, 12, "1.2.3.4")

	out := buf.String()
	for _, want := range []string{
		"Transaction recorded", "collection=donations", "transaction_id=d1",
		"error=boom", "component=storage",
		"level=ERROR", "status_code=500",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
