package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fundledger/internal/core"
	"fundledger/internal/ledger"
	"fundledger/internal/store"
)

const defaultLoadTimeout = 7 * time.Second

// Dashboard is everything the member dashboard renders.
type Dashboard struct {
	Entries  []ledger.Entry
	Summary  ledger.Summary
	Projects []ledger.ProjectTotal
	// SummaryBound is the per-stream record bound behind Summary and
	// Projects; 0 means all-time totals.
	SummaryBound int
	LoadedAt     time.Time
}

// DashboardService reads both streams and aggregates them.
type DashboardService struct {
	donations    store.RecentReader
	outflows     store.RecentReader
	ledgerLimit  int
	summaryLimit int
	timeout      time.Duration
	now          func() time.Time
}

func NewDashboardService(donations, outflows store.RecentReader, ledgerLimit, summaryLimit int) *DashboardService {
	return &DashboardService{
		donations:    donations,
		outflows:     outflows,
		ledgerLimit:  ledgerLimit,
		summaryLimit: summaryLimit,
		timeout:      defaultLoadTimeout,
		now:          time.Now,
	}
}

// Load reads both collections concurrently. It fails as a whole if either
// read fails.
func (s *DashboardService) Load(ctx context.Context) (Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	limit := s.readLimit()
	var donations, outflows []core.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donations, err = s.donations.QueryRecent(gctx, limit)
		if err != nil {
			return fmt.Errorf("read donations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		outflows, err = s.outflows.QueryRecent(gctx, limit)
		if err != nil {
			return fmt.Errorf("read outflows: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	summaryDonations := head(donations, s.summaryLimit)
	summaryOutflows := head(outflows, s.summaryLimit)

	return Dashboard{
		Entries: ledger.BuildRecentLedger(
			head(donations, s.ledgerLimit),
			head(outflows, s.ledgerLimit),
			s.ledgerLimit,
		),
		Summary:      ledger.ComputeSummary(summaryDonations, summaryOutflows),
		Projects:     ledger.AggregateByProject(summaryDonations, core.ProjectCodes()),
		SummaryBound: max(s.summaryLimit, 0),
		LoadedAt:     s.now(),
	}, nil
}

// readLimit is the single per-stream bound that satisfies both the ledger
// and the summary.
func (s *DashboardService) readLimit() int {
	if s.summaryLimit <= 0 {
		return 0
	}
	return max(s.ledgerLimit, s.summaryLimit)
}

// head returns the first n records; n <= 0 returns all of them.
func head(ts []core.Transaction, n int) []core.Transaction {
	if n <= 0 || len(ts) <= n {
		return ts
	}
	return ts[:n]
}
