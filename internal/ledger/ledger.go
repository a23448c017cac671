// Package ledger merges the donation and outflow streams into one
// time-ordered view and derives the fund summary and per-project totals.
//
// Every function here is pure: inputs are never modified and equal inputs
// always give equal outputs.
package ledger

import (
	"sort"

	"fundledger/internal/core"
)

// Entry is a record tagged with the stream it came from.
type Entry struct {
	core.Transaction
}

// Summary holds the fund totals over the records it was computed from.
type Summary struct {
	TotalInflow  core.Money
	TotalOutflow core.Money
	Balance      core.Money
}

// ProjectTotal is the donated amount for one catalogue project.
type ProjectTotal struct {
	Code   string
	Label  string
	Amount core.Money
	// Width is the bar length in percent of the largest bucket (0-100).
	Width int
}

// BuildRecentLedger tags both streams, merges them newest first and keeps at
// most limit entries. Each input is expected to be the newest limit records
// of its stream, so the result approximates the global top-limit.
//
// The sort is stable: on equal timestamps donations come before outflows and
// each stream keeps its input order. Unparseable timestamps sort last.
func BuildRecentLedger(donations, outflows []core.Transaction, limit int) []Entry {
	if limit <= 0 {
		return []Entry{}
	}
	merged := make([]Entry, 0, len(donations)+len(outflows))
	merged = appendTagged(merged, donations, core.Inflow)
	merged = appendTagged(merged, outflows, core.Outflow)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time().After(merged[j].Time())
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func appendTagged(dst []Entry, src []core.Transaction, kind core.Kind) []Entry {
	for _, t := range src {
		t.Kind = kind
		dst = append(dst, Entry{Transaction: t})
	}
	return dst
}

// ComputeSummary sums both streams. Balance is always exactly
// TotalInflow - TotalOutflow.
func ComputeSummary(donations, outflows []core.Transaction) Summary {
	var s Summary
	for _, d := range donations {
		s.TotalInflow = s.TotalInflow.Add(d.Amount)
	}
	for _, o := range outflows {
		s.TotalOutflow = s.TotalOutflow.Add(o.Amount)
	}
	s.Balance = s.TotalInflow.Sub(s.TotalOutflow)
	return s
}

// AggregateByProject sums donations per project code, returning one total per
// code in the order given. Donations with a code not in projects count
// towards no bucket.
func AggregateByProject(donations []core.Transaction, projects []string) []ProjectTotal {
	index := make(map[string]int, len(projects))
	totals := make([]ProjectTotal, len(projects))
	for i, code := range projects {
		totals[i] = ProjectTotal{Code: code, Label: core.ProjectLabel(code)}
		if _, dup := index[code]; !dup {
			index[code] = i
		}
	}
	for _, d := range donations {
		if i, ok := index[d.Project]; ok {
			totals[i].Amount = totals[i].Amount.Add(d.Amount)
		}
	}
	scaleWidths(totals)
	return totals
}

// scaleWidths sets each bar width relative to the largest bucket, rounding to
// the nearest percent and keeping tiny non-zero values visible.
func scaleWidths(totals []ProjectTotal) {
	var maxCents int64
	for _, t := range totals {
		if t.Amount.Cents > maxCents {
			maxCents = t.Amount.Cents
		}
	}
	if maxCents == 0 {
		return
	}
	for i := range totals {
		c := totals[i].Amount.Cents
		if c <= 0 {
			continue
		}
		width := int((c*100 + maxCents/2) / maxCents)
		if width < 2 {
			width = 2
		}
		if width > 100 {
			width = 100
		}
		totals[i].Width = width
	}
}

// Amounts returns just the sums, in order, for chart series.
func Amounts(totals []ProjectTotal) []core.Money {
	out := make([]core.Money, len(totals))
	for i, t := range totals {
		out[i] = t.Amount
	}
	return out
}
