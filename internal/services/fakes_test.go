package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"fundledger/internal/amqp"
	"fundledger/internal/core"
)

type fakeCollection struct {
	mu      sync.Mutex
	records []core.Transaction
	err     error
	delay   time.Duration
	limits  []int
}

func (f *fakeCollection) Append(ctx context.Context, t core.Transaction) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	t.ID = strconv.Itoa(len(f.records) + 1)
	f.records = append(f.records, t)
	return t.ID, nil
}

// QueryRecent expects records to be seeded newest first.
func (f *fakeCollection) QueryRecent(ctx context.Context, limit int) ([]core.Transaction, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	out := append([]core.Transaction(nil), f.records...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCollection) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.TransactionRecordedMessage
	err  error
}

func (f *fakePublisher) PublishTransactionRecorded(_ context.Context, msg *amqp.TransactionRecordedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}
