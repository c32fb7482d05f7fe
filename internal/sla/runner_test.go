package sla

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campops/campops/internal/db"
	"github.com/campops/campops/internal/mailer"
)

// fixedClock always returns the same instant.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeSource serves a fixed open set, or fails.
type fakeSource struct {
	open []TrackedRequest
	err  error
}

func (s *fakeSource) ListOpen(ctx context.Context) ([]TrackedRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.open, nil
}

// captureSender records sends and optionally fails them.
type captureSender struct {
	sent []mailer.Message
	to   [][]string
	err  error
}

func (s *captureSender) Send(ctx context.Context, recipients []string, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	s.to = append(s.to, recipients)
	return nil
}

func newTestRunner(t *testing.T, sources map[RequestType]RequestSource, sender mailer.Sender) (*Runner, *PolicyStore, *LogStore) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	policies := NewPolicyStore(database)
	logs := NewLogStore(database)
	return NewRunner(policies, logs, sources, sender), policies, logs
}

func mustCreatePolicy(t *testing.T, store *PolicyStore, p Policy) Policy {
	t.Helper()
	if err := store.Create(context.Background(), &p); err != nil {
		t.Fatalf("Create policy: %v", err)
	}
	return p
}

func TestRunEscalatesAndNotifies(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{open: []TrackedRequest{
		{ID: "req-1", RequestType: TypeTransfer, CreatedAt: baseTime},
	}}
	sender := &captureSender{}
	runner, policies, logs := newTestRunner(t,
		map[RequestType]RequestSource{TypeTransfer: source}, sender)

	mustCreatePolicy(t, policies, testPolicy())
	runner.SetClock(fixedClock{now: baseTime.Add(20 * time.Hour)})

	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Checked != 1 || report.Escalated != 1 || report.Breached != 0 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if len(report.Errors) != 0 {
		t.Errorf("unexpected errors: %+v", report.Errors)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(sender.sent))
	}
	if sender.to[0][0] != "supervisor@example.com" {
		t.Errorf("wrong recipients: %v", sender.to[0])
	}

	l, err := logs.Get(ctx, "pol-1", "req-1")
	if err != nil {
		t.Fatalf("Get log: %v", err)
	}
	if l.EscalationLevel != 1 || l.IsBreached {
		t.Errorf("unexpected log state: %+v", l)
	}
}

func TestRunEdgeTriggeredAcrossRuns(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{open: []TrackedRequest{
		{ID: "req-1", RequestType: TypeTransfer, CreatedAt: baseTime},
	}}
	sender := &captureSender{}
	runner, policies, _ := newTestRunner(t,
		map[RequestType]RequestSource{TypeTransfer: source}, sender)

	mustCreatePolicy(t, policies, testPolicy())

	// First run crosses level 1 and notifies.
	runner.SetClock(fixedClock{now: baseTime.Add(20 * time.Hour)})
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	// Second run with no new threshold crossed stays silent.
	runner.SetClock(fixedClock{now: baseTime.Add(21 * time.Hour)})
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected exactly one notification across runs, got %d", len(sender.sent))
	}

	// Third run crosses level 2: one more send.
	runner.SetClock(fixedClock{now: baseTime.Add(31 * time.Hour)})
	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected a second notification at level 2, got %d sends", len(sender.sent))
	}
	if report.Breached != 1 {
		t.Errorf("expected the breach counted once, got %d", report.Breached)
	}
}

func TestRunCompletionSweep(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{open: []TrackedRequest{
		{ID: "req-1", RequestType: TypeTransfer, CreatedAt: baseTime},
	}}
	runner, policies, logs := newTestRunner(t,
		map[RequestType]RequestSource{TypeTransfer: source}, nil)

	mustCreatePolicy(t, policies, testPolicy())

	runner.SetClock(fixedClock{now: baseTime.Add(20 * time.Hour)})
	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	// The request closes between runs.
	source.open = nil
	completedAt := baseTime.Add(22 * time.Hour)
	runner.SetClock(fixedClock{now: completedAt})
	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Completed != 1 {
		t.Errorf("expected one completion, got %d", report.Completed)
	}

	l, err := logs.Get(ctx, "pol-1", "req-1")
	if err != nil {
		t.Fatalf("Get log: %v", err)
	}
	if l.CompletedDate == nil || !l.CompletedDate.Equal(completedAt) {
		t.Errorf("expected completed_date %v, got %v", completedAt, l.CompletedDate)
	}
	// Frozen at the last evaluation.
	if l.ElapsedHours != 20 || l.EscalationLevel != 1 {
		t.Errorf("completed log not frozen: %+v", l)
	}

	// A third run must not resurrect or recount the completed log.
	runner.SetClock(fixedClock{now: baseTime.Add(30 * time.Hour)})
	report, err = runner.Run(ctx)
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if report.Completed != 0 || report.Checked != 0 {
		t.Errorf("completed request re-processed: %+v", report)
	}
}

func TestRunSendFailureDoesNotStopRun(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{open: []TrackedRequest{
		{ID: "req-1", RequestType: TypeTransfer, CreatedAt: baseTime},
		{ID: "req-2", RequestType: TypeTransfer, CreatedAt: baseTime},
	}}
	sender := &captureSender{err: errors.New("smtp unreachable")}
	runner, policies, logs := newTestRunner(t,
		map[RequestType]RequestSource{TypeTransfer: source}, sender)

	mustCreatePolicy(t, policies, testPolicy())
	runner.SetClock(fixedClock{now: baseTime.Add(20 * time.Hour)})

	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Both requests evaluated and persisted despite every send failing.
	if report.Checked != 2 || report.Escalated != 2 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("expected two send errors, got %+v", report.Errors)
	}
	for _, re := range report.Errors {
		if re.Kind != ErrorSend {
			t.Errorf("expected send error, got %+v", re)
		}
	}

	// State was written before the failed notify: the escalation is not
	// retried as a send on the next run.
	for _, id := range []string{"req-1", "req-2"} {
		l, err := logs.Get(ctx, "pol-1", id)
		if err != nil {
			t.Fatalf("Get log %s: %v", id, err)
		}
		if l.EscalationLevel != 1 {
			t.Errorf("log %s not persisted: %+v", id, l)
		}
	}
}

func TestRunSourceFailureIsolatedPerPolicy(t *testing.T) {
	ctx := context.Background()
	broken := &fakeSource{err: errors.New("db locked")}
	working := &fakeSource{open: []TrackedRequest{
		{ID: "m-1", RequestType: TypeMaintenance, CreatedAt: baseTime},
	}}
	runner, policies, _ := newTestRunner(t, map[RequestType]RequestSource{
		TypeTransfer:    broken,
		TypeMaintenance: working,
	}, nil)

	mustCreatePolicy(t, policies, testPolicy())
	maint := testPolicy()
	maint.ID = "pol-2"
	maint.RequestType = TypeMaintenance
	maint.Name = "Maintenance"
	mustCreatePolicy(t, policies, maint)

	runner.SetClock(fixedClock{now: baseTime.Add(20 * time.Hour)})
	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The maintenance policy still ran.
	if report.Checked != 1 {
		t.Errorf("expected the working policy to be checked, got %+v", report.Summary)
	}
	if len(report.Errors) != 1 || report.Errors[0].Kind != ErrorSource {
		t.Fatalf("expected one source error, got %+v", report.Errors)
	}
	if report.Errors[0].RequestType != TypeTransfer {
		t.Errorf("error attributed to wrong type: %+v", report.Errors[0])
	}
}

func TestRunDuplicateActivePoliciesExcluded(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{open: []TrackedRequest{
		{ID: "req-1", RequestType: TypeTransfer, CreatedAt: baseTime},
	}}
	sender := &captureSender{}
	runner, policies, _ := newTestRunner(t,
		map[RequestType]RequestSource{TypeTransfer: source}, sender)

	first := testPolicy()
	mustCreatePolicy(t, policies, first)
	second := testPolicy()
	second.ID = "pol-dup"
	second.Name = "Transfers strict"
	mustCreatePolicy(t, policies, second)

	runner.SetClock(fixedClock{now: baseTime.Add(20 * time.Hour)})
	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Checked != 0 {
		t.Errorf("ambiguous type must not be evaluated, got %+v", report.Summary)
	}
	if len(report.Errors) != 1 || report.Errors[0].Kind != ErrorConfig {
		t.Fatalf("expected one config error, got %+v", report.Errors)
	}
	if len(sender.sent) != 0 {
		t.Errorf("no notifications expected, got %d", len(sender.sent))
	}
}

func TestRunMonitorOnlyPolicySkipsSends(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{open: []TrackedRequest{
		{ID: "req-1", RequestType: TypeTransfer, CreatedAt: baseTime},
	}}
	sender := &captureSender{}
	runner, policies, logs := newTestRunner(t,
		map[RequestType]RequestSource{TypeTransfer: source}, sender)

	p := testPolicy()
	p.AutoSendEmails = false
	mustCreatePolicy(t, policies, p)

	runner.SetClock(fixedClock{now: baseTime.Add(20 * time.Hour)})
	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Escalated != 1 {
		t.Errorf("escalation must still be recorded: %+v", report.Summary)
	}
	if len(sender.sent) != 0 {
		t.Errorf("monitor-only policy must not send, got %d", len(sender.sent))
	}
	l, err := logs.Get(ctx, "pol-1", "req-1")
	if err != nil {
		t.Fatalf("Get log: %v", err)
	}
	if l.EscalationLevel != 1 {
		t.Errorf("log not written: %+v", l)
	}
}

func TestRunMissingSourceIsConfigError(t *testing.T) {
	ctx := context.Background()
	runner, policies, _ := newTestRunner(t, map[RequestType]RequestSource{}, nil)

	mustCreatePolicy(t, policies, testPolicy())
	runner.SetClock(fixedClock{now: baseTime.Add(1 * time.Hour)})

	report, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Errors) != 1 || report.Errors[0].Kind != ErrorConfig {
		t.Fatalf("expected one config error, got %+v", report.Errors)
	}
}

func TestRunReportCallback(t *testing.T) {
	ctx := context.Background()
	runner, _, _ := newTestRunner(t, map[RequestType]RequestSource{}, nil)

	var got *RunReport
	runner.OnRunComplete(func(r RunReport) { got = &r })

	if _, err := runner.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got == nil {
		t.Fatal("expected run callback to fire")
	}
}
