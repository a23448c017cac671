package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fundledger/internal/core"
)

// fakeSheets records the values written per tab.
type fakeSheets struct {
	mu     sync.Mutex
	rows   map[string][][]any
	ranges []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	i := strings.Index(r.URL.Path, "/values/")
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	rng := r.URL.Path[i+len("/values/"):]
	sheet := rng[:strings.Index(rng, "!")]

	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(&gsheet.ValueRange{Range: rng, Values: f.rows[sheet]})
	case http.MethodPut:
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, "missing valueInputOption", http.StatusBadRequest)
			return
		}
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows[sheet] = append(f.rows[sheet], vr.Values...)
		f.ranges = append(f.ranges, rng)
		_ = json.NewEncoder(w).Encode(&gsheet.UpdateValuesResponse{UpdatedRange: rng})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{rows: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), "sheet-id", "", goption.WithEndpoint(srv.URL+"/"), goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func TestAppendTransactionWritesHeaderOnce(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	tx := core.Transaction{
		ID: "abc", Kind: core.Inflow, Name: "Ada", Email: "a@x", Phone: "1", Project: "education",
		Amount: core.Money{Cents: 1050}, Timestamp: "2024-07-01T12:00:00.000Z", Status: core.StatusCompleted,
	}

	ref, err := c.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if ref != "2024 Ledger!A2:J2" {
		t.Fatalf("ref = %q", ref)
	}
	ref, err = c.AppendTransaction(ctx, tx)
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if ref != "2024 Ledger!A3:J3" {
		t.Fatalf("ref = %q", ref)
	}

	rows := fake.rows["2024 Ledger"]
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Timestamp" || rows[1][1] != "Donation" || rows[1][6] != "Education Support" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if n, err := c.CountRows(ctx, 2024); err != nil || n != 3 {
		t.Fatalf("CountRows = %d, %v", n, err)
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2024, "2024 Ledger"},
		{" Ledger ", 2025, "2025 Ledger"},
		{"2023 Ledger", 2025, "2023 Ledger"},
		{"abcd Ledger", 2025, "2025 abcd Ledger"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	_, err := NewFromEnv(context.Background())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "x", sheetBase: "Ledger"}
	if _, err := c.AppendTransaction(context.Background(), core.Transaction{}); err == nil {
		t.Fatalf("expected error with nil service")
	}
}
