package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fundledger/internal/amqp"
	"fundledger/internal/cache"
	"fundledger/internal/notify"
	"fundledger/internal/sheets"
)

// MirrorWorker copies recorded transactions to the spreadsheet mirror and
// announces them on the configured chat channels.
type MirrorWorker struct {
	mirror   sheets.LedgerMirror
	notifier notify.Notifier
	seen     cache.Cache[string]
}

// NewMirrorWorker builds a worker. mirror and notifier may be nil; a worker
// with neither only acknowledges messages.
func NewMirrorWorker(mirror sheets.LedgerMirror, notifier notify.Notifier, dedupeTTL time.Duration) *MirrorWorker {
	if dedupeTTL <= 0 {
		dedupeTTL = time.Hour
	}
	return &MirrorWorker{
		mirror:   mirror,
		notifier: notifier,
		seen:     cache.NewLRUCache[string](4096, dedupeTTL),
	}
}

// Seen exposes the dedupe cache so callers can register it for sweeping.
func (w *MirrorWorker) Seen() cache.Cleaner {
	if c, ok := w.seen.(cache.Cleaner); ok {
		return c
	}
	return nil
}

// HandleRecorded processes one message. A mirror failure is returned so the
// message is requeued; a notification failure is only logged because the
// row has already been written.
func (w *MirrorWorker) HandleRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	if _, dup := w.seen.Get(msg.EventID); dup {
		slog.InfoContext(ctx, "Skipping redelivered message", "event_id", msg.EventID)
		return nil
	}

	t := msg.Record()
	slog.InfoContext(ctx, "Processing recorded transaction",
		"event_id", msg.EventID,
		"collection", msg.Collection,
		"id", t.ID,
		"kind", t.Kind)

	ref := ""
	if w.mirror != nil {
		var err error
		ref, err = w.mirror.AppendTransaction(ctx, t)
		if err != nil {
			return fmt.Errorf("append to mirror: %w", err)
		}
	}
	w.seen.Set(msg.EventID, ref)

	if w.notifier != nil {
		if err := w.notifier.Notify(ctx, t); err != nil {
			slog.WarnContext(ctx, "Failed to send notification", "event_id", msg.EventID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Mirrored transaction",
		"event_id", msg.EventID,
		"id", t.ID,
		"sheets_ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}
