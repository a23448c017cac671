package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fundledger/internal/core"
	"fundledger/internal/gcloud"
	ports "fundledger/internal/sheets"
)

// Header is the first row written to an empty ledger tab.
var Header = []any{"Timestamp", "Type", "ID", "Name", "Email", "Phone", "Project", "Amount", "Transaction #", "Mode"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base tab name without year (e.g. "Ledger"); the record year is prefixed.
	sheetBase string
}

// Ensure interface conformance
var (
	_ ports.LedgerMirror = (*Client)(nil)
	_ ports.RowCounter   = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Ledger") and the service account
// variables read by gcloud.CredentialsFromEnv.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetBase := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))

	opts, err := gcloud.CredentialsFromEnv().ClientOptions(ctx, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets credentials: %w", err)
	}
	return New(ctx, spreadsheetID, sheetBase, opts...)
}

// New creates a client for an explicit spreadsheet.
func New(ctx context.Context, spreadsheetID, sheetBase string, opts ...goption.ClientOption) (*Client, error) {
	if sheetBase == "" {
		sheetBase = "Ledger"
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID, "sheet", sheetBase)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: sheetBase}, nil
}

// AppendTransaction writes t on the first empty row of its year's tab,
// writing the header first when the tab is empty.
func (c *Client) AppendTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := c.sheetFor(t)

	rows, err := c.countRows(ctx, sheet)
	if err != nil {
		return "", err
	}

	values := [][]any{}
	if rows == 0 {
		values = append(values, Header)
	}
	values = append(values, rowFor(t))

	first := rows + 1
	last := rows + len(values)
	rng := fmt.Sprintf("%s!A%d:J%d", sheet, first, last)
	vr := &gsheet.ValueRange{Values: values}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	return fmt.Sprintf("%s!A%d:J%d", sheet, last, last), nil
}

// CountRows returns the number of used rows in the tab for year.
func (c *Client) CountRows(ctx context.Context, year int) (int, error) {
	return c.countRows(ctx, yearPrefixedName(c.sheetBase, year))
}

func (c *Client) countRows(ctx context.Context, sheet string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get sheet dimensions for %s: %w", sheet, err)
	}
	return len(resp.Values), nil
}

func (c *Client) sheetFor(t core.Transaction) string {
	year := time.Now().Year()
	if ts := t.Time(); !ts.IsZero() {
		year = ts.Year()
	}
	return yearPrefixedName(c.sheetBase, year)
}

// rowFor renders a transaction as one sheet row (columns A..J).
func rowFor(t core.Transaction) []any {
	return []any{
		t.Timestamp,
		t.Kind.Label(),
		t.ID,
		t.Name,
		t.Email,
		t.Phone,
		core.ProjectLabel(t.Project),
		t.Amount.Dollars(),
		t.TransactionNumber,
		string(t.Mode),
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with
// a four-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if len(base) >= 5 && base[4] == ' ' {
		isYear := true
		for _, r := range base[:4] {
			if r < '0' || r > '9' {
				isYear = false
				break
			}
		}
		if isYear {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
