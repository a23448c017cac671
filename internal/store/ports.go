// Package store defines the ports the application uses to read and write
// transaction collections. Backends live in sub-packages.
package store

import (
	"context"
	"errors"
	"fmt"

	"fundledger/internal/core"
)

// Ports for outbound adapters.
type (
	// Appender writes a new record and returns the id the store assigned.
	Appender interface {
		Append(ctx context.Context, t core.Transaction) (id string, err error)
	}

	// RecentReader returns records ordered by timestamp, newest first, at
	// most limit of them. A limit <= 0 returns every record. Returned
	// records carry the Kind of the collection.
	RecentReader interface {
		QueryRecent(ctx context.Context, limit int) ([]core.Transaction, error)
	}

	// Collection is one logical collection (donations or outflows).
	Collection interface {
		Appender
		RecentReader
	}
)

// ErrKindMismatch is returned when a record is appended to the collection of
// the other stream.
var ErrKindMismatch = errors.New("transaction kind does not match collection")

// CheckKind verifies that t may be appended to a collection holding kind.
func CheckKind(t core.Transaction, kind core.Kind) error {
	if t.Kind != kind {
		return fmt.Errorf("%w: got %q, collection holds %q", ErrKindMismatch, t.Kind, kind)
	}
	return nil
}
