package sheets

import (
	"context"

	"fundledger/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror keeps a human-readable copy of recorded transactions.
	LedgerMirror interface {
		// AppendTransaction writes one row and returns its range reference.
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// RowCounter reports how many rows a year's ledger tab already holds.
	RowCounter interface {
		CountRows(ctx context.Context, year int) (int, error)
	}
)
