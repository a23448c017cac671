package memory

import (
	"context"
	"errors"
	"testing"

	"fundledger/internal/core"
	"fundledger/internal/store"
)

func donation(ts string, cents int64) core.Transaction {
	return core.Transaction{
		Kind: core.Inflow, Name: "n", Email: "e", Phone: "p", Project: "education",
		Amount: core.Money{Cents: cents}, Timestamp: ts, Status: core.StatusCompleted,
	}
}

func TestAppendAndQueryRecent(t *testing.T) {
	s := New(core.Inflow)
	ctx := context.Background()

	ids := map[string]bool{}
	for _, ts := range []string{
		"2024-01-02T00:00:00.000Z",
		"2024-01-03T00:00:00.000Z",
		"2024-01-01T00:00:00.000Z",
	} {
		id, err := s.Append(ctx, donation(ts, 100))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if id == "" || ids[id] {
			t.Fatalf("expected fresh non-empty id, got %q", id)
		}
		ids[id] = true
	}

	got, err := s.QueryRecent(ctx, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Timestamp != "2024-01-03T00:00:00.000Z" || got[1].Timestamp != "2024-01-02T00:00:00.000Z" {
		t.Fatalf("unexpected order: %s, %s", got[0].Timestamp, got[1].Timestamp)
	}
	if got[0].Kind != core.Inflow || got[0].ID == "" {
		t.Fatalf("record missing kind or id: %+v", got[0])
	}

	all, _ := s.QueryRecent(ctx, 0)
	if len(all) != 3 || s.Len() != 3 {
		t.Fatalf("limit 0 should return all records, got %d", len(all))
	}
}

func TestAppendRejects(t *testing.T) {
	s := New(core.Inflow)
	ctx := context.Background()

	out := donation("2024-01-01T00:00:00.000Z", 1)
	out.Kind = core.Outflow
	if _, err := s.Append(ctx, out); !errors.Is(err, store.ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}

	bad := donation("2024-01-01T00:00:00.000Z", -1)
	if _, err := s.Append(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("rejected records were stored")
	}
}
