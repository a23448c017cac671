package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fundledger/internal/core"
)

var names = Collections{Donations: "donations", Outflows: "outflow"}

func validDonation() DonationInput {
	return DonationInput{
		Name:    " Ada ",
		Email:   "ada@example.org",
		Phone:   "555-0100",
		Project: "education",
		Amount:  core.Money{Cents: 5000},
	}
}

func validOutflow() OutflowInput {
	return OutflowInput{
		Name:              "Paper Co",
		Email:             "billing@paper.example",
		Phone:             "555-0199",
		Project:           "community",
		Amount:            core.Money{Cents: 1250},
		TransactionNumber: "CHK-7",
		Mode:              core.ModeCheck,
	}
}

func newIntake(pub Publisher) (*IntakeService, *fakeCollection, *fakeCollection) {
	d, o := &fakeCollection{}, &fakeCollection{}
	s := NewIntakeService(d, o, names, pub, time.Hour)
	s.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 123e6, time.UTC) }
	return s, d, o
}

func TestRecordDonation(t *testing.T) {
	pub := &fakePublisher{}
	s, d, o := newIntake(pub)

	r, err := s.RecordDonation(context.Background(), validDonation())
	if err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	if r.ID != "1" || r.Duplicate {
		t.Fatalf("receipt = %+v", r)
	}
	got := d.records[0]
	if got.Name != "Ada" || got.Status != core.StatusCompleted || got.Kind != core.Inflow {
		t.Fatalf("stored %+v", got)
	}
	if got.Timestamp != "2024-06-01T09:30:00.123Z" {
		t.Fatalf("Timestamp = %q", got.Timestamp)
	}
	if o.count() != 0 {
		t.Fatal("outflows should be untouched")
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Collection != "donations" || pub.msgs[0].Transaction.ID != "1" {
		t.Fatalf("published %+v", pub.msgs)
	}
}

func TestRecordOutflow(t *testing.T) {
	s, d, o := newIntake(nil)
	r, err := s.RecordOutflow(context.Background(), validOutflow())
	if err != nil {
		t.Fatalf("RecordOutflow: %v", err)
	}
	if r.Transaction.Kind != core.Outflow || r.Transaction.Status != "" {
		t.Fatalf("receipt = %+v", r)
	}
	if o.count() != 1 || d.count() != 0 {
		t.Fatalf("counts d=%d o=%d", d.count(), o.count())
	}
}

func TestRecordValidation(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *IntakeService) error
		want error
	}{
		{
			name: "blank name",
			run: func(s *IntakeService) error {
				in := validDonation()
				in.Name = "  "
				_, err := s.RecordDonation(context.Background(), in)
				return err
			},
			want: core.ErrEmptyName,
		},
		{
			name: "negative amount",
			run: func(s *IntakeService) error {
				in := validDonation()
				in.Amount = core.Money{Cents: -1}
				_, err := s.RecordDonation(context.Background(), in)
				return err
			},
			want: core.ErrInvalidAmount,
		},
		{
			name: "unknown project",
			run: func(s *IntakeService) error {
				in := validDonation()
				in.Project = "space"
				_, err := s.RecordDonation(context.Background(), in)
				return err
			},
			want: ErrUnknownProject,
		},
		{
			name: "outflow without transaction number",
			run: func(s *IntakeService) error {
				in := validOutflow()
				in.TransactionNumber = ""
				_, err := s.RecordOutflow(context.Background(), in)
				return err
			},
			want: core.ErrEmptyTransactionNumber,
		},
		{
			name: "outflow with bad mode",
			run: func(s *IntakeService) error {
				in := validOutflow()
				in.Mode = "wire"
				_, err := s.RecordOutflow(context.Background(), in)
				return err
			},
			want: core.ErrInvalidMode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d, o := newIntake(nil)
			if err := tt.run(s); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if d.count()+o.count() != 0 {
				t.Fatal("nothing should be stored")
			}
		})
	}
}

func TestRecordZeroAmountAllowed(t *testing.T) {
	s, d, _ := newIntake(nil)
	in := validDonation()
	in.Amount = core.Money{}
	if _, err := s.RecordDonation(context.Background(), in); err != nil {
		t.Fatalf("zero amount: %v", err)
	}
	if d.count() != 1 {
		t.Fatal("zero donation should be stored")
	}
}

func TestIdempotentResubmission(t *testing.T) {
	pub := &fakePublisher{}
	s, d, _ := newIntake(pub)
	in := validDonation()
	in.IdempotencyKey = "form-1"

	first, err := s.RecordDonation(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.RecordDonation(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if first.Duplicate || !second.Duplicate || first.ID != second.ID {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	if d.count() != 1 || len(pub.msgs) != 1 {
		t.Fatalf("stored %d, published %d", d.count(), len(pub.msgs))
	}

	// The same key on the other stream is a different submission.
	out := validOutflow()
	out.IdempotencyKey = "form-1"
	if r, err := s.RecordOutflow(context.Background(), out); err != nil || r.Duplicate {
		t.Fatalf("outflow r=%+v err=%v", r, err)
	}
}

func TestConcurrentSubmissionsCollapse(t *testing.T) {
	s, d, _ := newIntake(nil)
	d.delay = 20 * time.Millisecond
	in := validDonation()
	in.IdempotencyKey = "double-click"

	const n = 8
	var wg sync.WaitGroup
	receipts := make([]Receipt, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			receipts[i], errs[i] = s.RecordDonation(context.Background(), in)
		}(i)
	}
	wg.Wait()

	originals := 0
	for i := range receipts {
		if errs[i] != nil {
			t.Fatalf("submission %d: %v", i, errs[i])
		}
		if !receipts[i].Duplicate {
			originals++
		}
	}
	if d.count() != 1 {
		t.Fatalf("stored %d records, want 1", d.count())
	}
	if originals != 1 {
		t.Fatalf("%d non-duplicate receipts, want 1", originals)
	}
}

func TestCollapsedSubmissionSurvivesLeaderCancel(t *testing.T) {
	s, d, _ := newIntake(nil)
	d.delay = 50 * time.Millisecond
	in := validDonation()
	in.IdempotencyKey = "leader-leaves"

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var leaderErr, followerErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, leaderErr = s.RecordDonation(ctx, in)
	}()
	time.Sleep(5 * time.Millisecond)
	go func() {
		defer wg.Done()
		_, followerErr = s.RecordDonation(context.Background(), in)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	wg.Wait()

	if followerErr != nil {
		t.Fatalf("follower failed with the leader's context: %v", followerErr)
	}
	if leaderErr != nil {
		t.Fatalf("leader: %v", leaderErr)
	}
	if d.count() != 1 {
		t.Fatalf("stored %d records, want 1", d.count())
	}
}

func TestFailedWriteIsNotRemembered(t *testing.T) {
	s, d, _ := newIntake(nil)
	d.err = errors.New("disk full")
	in := validDonation()
	in.IdempotencyKey = "retry-me"

	if _, err := s.RecordDonation(context.Background(), in); err == nil {
		t.Fatal("expected error")
	}
	d.err = nil
	r, err := s.RecordDonation(context.Background(), in)
	if err != nil || r.Duplicate {
		t.Fatalf("retry r=%+v err=%v", r, err)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	s, d, _ := newIntake(&fakePublisher{err: errors.New("broker down")})
	if _, err := s.RecordDonation(context.Background(), validDonation()); err != nil {
		t.Fatalf("RecordDonation: %v", err)
	}
	if d.count() != 1 {
		t.Fatal("record should be stored")
	}
	if s.IdempotencyCache() == nil {
		t.Fatal("IdempotencyCache should be exposed")
	}
}
