// Package notify sends short announcements about recorded transactions to
// chat channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fundledger/internal/core"
)

// Notifier announces a recorded transaction.
type Notifier interface {
	Notify(ctx context.Context, t core.Transaction) error
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, t core.Transaction) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Message renders the text posted for t.
func Message(t core.Transaction) string {
	var b strings.Builder
	switch t.Kind {
	case core.Inflow:
		fmt.Fprintf(&b, "New donation: %s from %s to %s", t.Amount, t.Name, core.ProjectLabel(t.Project))
	case core.Outflow:
		fmt.Fprintf(&b, "New expense: %s paid to %s for %s via %s (#%s)",
			t.Amount, t.Name, core.ProjectLabel(t.Project), t.Mode, t.TransactionNumber)
	default:
		fmt.Fprintf(&b, "New transaction: %s", t.Amount)
	}
	if t.Timestamp != "" {
		fmt.Fprintf(&b, "\n%s", t.Timestamp)
	}
	return b.String()
}
