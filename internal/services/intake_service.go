package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"fundledger/internal/amqp"
	"fundledger/internal/cache"
	"fundledger/internal/core"
	applog "fundledger/internal/log"
	"fundledger/internal/store"
)

// ErrUnknownProject is returned for submissions naming a project outside
// the catalogue.
var ErrUnknownProject = errors.New("unknown project")

// Publisher announces recorded transactions.
type Publisher interface {
	PublishTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error
}

type DonationInput struct {
	Name    string
	Email   string
	Phone   string
	Project string
	Amount  core.Money
	// IdempotencyKey collapses resubmissions of the same rendered form.
	IdempotencyKey string
}

type OutflowInput struct {
	Name              string
	Email             string
	Phone             string
	Project           string
	Amount            core.Money
	TransactionNumber string
	Mode              core.PaymentMode
	IdempotencyKey    string
}

// Receipt describes a stored transaction. Duplicate is set when the
// submission matched an earlier one and nothing was written.
type Receipt struct {
	ID          string
	Transaction core.Transaction
	Duplicate   bool
}

// Collections names a store collection for event payloads.
type Collections struct {
	Donations string
	Outflows  string
}

// IntakeService records donations and outflows and publishes an event for
// each new record.
type IntakeService struct {
	donations store.Appender
	outflows  store.Appender
	names     Collections
	publisher Publisher

	flight singleflight.Group
	seen   cache.Cache[Receipt]
	now    func() time.Time
}

// NewIntakeService wires the service. publisher may be nil.
func NewIntakeService(donations, outflows store.Appender, names Collections, publisher Publisher, idempotencyTTL time.Duration) *IntakeService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &IntakeService{
		donations: donations,
		outflows:  outflows,
		names:     names,
		publisher: publisher,
		seen:      cache.NewLRUCache[Receipt](10000, idempotencyTTL),
		now:       time.Now,
	}
}

// IdempotencyCache exposes the receipt cache for periodic sweeping.
func (s *IntakeService) IdempotencyCache() cache.Cleaner {
	if c, ok := s.seen.(cache.Cleaner); ok {
		return c
	}
	return nil
}

// RecordDonation validates and stores a donation with status completed.
func (s *IntakeService) RecordDonation(ctx context.Context, in DonationInput) (Receipt, error) {
	t := core.Transaction{
		Kind:    core.Inflow,
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Project: strings.TrimSpace(in.Project),
		Amount:  in.Amount,
		Status:  core.StatusCompleted,
	}
	return s.record(ctx, in.IdempotencyKey, t, s.donations, s.names.Donations)
}

// RecordOutflow validates and stores an outflow.
func (s *IntakeService) RecordOutflow(ctx context.Context, in OutflowInput) (Receipt, error) {
	t := core.Transaction{
		Kind:              core.Outflow,
		Name:              strings.TrimSpace(in.Name),
		Email:             strings.TrimSpace(in.Email),
		Phone:             strings.TrimSpace(in.Phone),
		Project:           strings.TrimSpace(in.Project),
		Amount:            in.Amount,
		TransactionNumber: strings.TrimSpace(in.TransactionNumber),
		Mode:              in.Mode,
	}
	return s.record(ctx, in.IdempotencyKey, t, s.outflows, s.names.Outflows)
}

// flightResult is shared by every caller collapsed onto one submission; the
// first caller to claim it gets the non-duplicate receipt.
type flightResult struct {
	receipt Receipt
	claimed *atomic.Bool
}

func (s *IntakeService) record(ctx context.Context, key string, t core.Transaction, dst store.Appender, collection string) (Receipt, error) {
	t.Timestamp = core.FormatTimestamp(s.now())
	if err := t.Validate(); err != nil {
		return Receipt{}, err
	}
	if !core.IsKnownProject(t.Project) {
		return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownProject, t.Project)
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return s.write(ctx, t, dst, collection)
	}

	cacheKey := string(t.Kind) + ":" + key
	// The write outlives the caller that started it; collapsed callers share it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.flight.Do(cacheKey, func() (any, error) {
		if r, ok := s.seen.Get(cacheKey); ok {
			claimed := &atomic.Bool{}
			claimed.Store(true)
			return flightResult{receipt: r, claimed: claimed}, nil
		}
		r, err := s.write(flightCtx, t, dst, collection)
		if err != nil {
			return nil, err
		}
		s.seen.Set(cacheKey, r)
		return flightResult{receipt: r, claimed: &atomic.Bool{}}, nil
	})
	if err != nil {
		return Receipt{}, err
	}

	res := v.(flightResult)
	r := res.receipt
	if !res.claimed.CompareAndSwap(false, true) {
		r.Duplicate = true
		slog.InfoContext(ctx, "Duplicate submission ignored", "kind", t.Kind, "id", r.ID)
	}
	return r, nil
}

func (s *IntakeService) write(ctx context.Context, t core.Transaction, dst store.Appender, collection string) (Receipt, error) {
	id, err := dst.Append(ctx, t)
	if err != nil {
		return Receipt{}, fmt.Errorf("save %s: %w", t.Kind, err)
	}
	t.ID = id

	applog.NewStructuredLogger(applog.FromContext(ctx)).LogTransactionRecorded(ctx, collection, t)

	if err := s.publish(ctx, collection, t); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event", "id", id, "error", err)
	}
	return Receipt{ID: id, Transaction: t}, nil
}

func (s *IntakeService) publish(ctx context.Context, collection string, t core.Transaction) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping event")
		return nil
	}
	return s.publisher.PublishTransactionRecorded(ctx, amqp.NewTransactionRecordedMessage(collection, t))
}
