package sla

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/campops/campops/internal/mailer"
)

// ErrRunInProgress is returned when Run is invoked while another run is
// still executing. Overlapping invocations are rejected rather than
// interleaved.
var ErrRunInProgress = errors.New("sla check already in progress")

// Clock supplies the current time. The runner reads it once per run so
// every evaluation in one invocation shares the same now.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Runner orchestrates one full check cycle: active policies × their open
// requests, evaluated, persisted, and notified. All I/O lives here; the
// evaluation itself is pure.
type Runner struct {
	policies    *PolicyStore
	logs        *LogStore
	sources     map[RequestType]RequestSource
	sender      mailer.Sender
	clock       Clock
	sendTimeout time.Duration

	mu    sync.Mutex
	onRun func(RunReport)
}

// NewRunner creates a Runner with the system clock and a 15s per-send timeout.
func NewRunner(policies *PolicyStore, logs *LogStore, sources map[RequestType]RequestSource, sender mailer.Sender) *Runner {
	if sender == nil {
		sender = mailer.NopSender{}
	}
	return &Runner{
		policies:    policies,
		logs:        logs,
		sources:     sources,
		sender:      sender,
		clock:       SystemClock{},
		sendTimeout: 15 * time.Second,
	}
}

// SetClock overrides the clock. Intended for tests and replay tooling.
func (r *Runner) SetClock(c Clock) { r.clock = c }

// SetSendTimeout overrides the per-notification send timeout.
func (r *Runner) SetSendTimeout(d time.Duration) {
	if d > 0 {
		r.sendTimeout = d
	}
}

// OnRunComplete registers a callback invoked with the report after each
// run finishes. Used by the live feed.
func (r *Runner) OnRunComplete(fn func(RunReport)) { r.onRun = fn }

// Run executes one check cycle and returns the report. Only a failure to
// read the policy set itself is fatal; errors local to one policy or one
// request are recorded in the report and the run continues.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	if !r.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.mu.Unlock()

	now := r.clock.Now()
	report := &RunReport{StartedAt: now}

	policies, cfgErrs, err := r.policies.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active policies: %w", err)
	}
	for _, ce := range cfgErrs {
		log.Printf("sla: %v", ce)
		report.Errors = append(report.Errors, RunError{
			Kind:        ErrorConfig,
			RequestType: ce.RequestType,
			PolicyID:    ce.PolicyID,
			Message:     ce.Reason,
		})
	}

	for _, policy := range policies {
		r.runPolicy(ctx, policy, now, report)
	}

	report.FinishedAt = r.clock.Now()
	log.Printf("sla: run complete: checked=%d escalated=%d breached=%d completed=%d errors=%d",
		report.Checked, report.Escalated, report.Breached, report.Completed, len(report.Errors))

	if r.onRun != nil {
		r.onRun(*report)
	}
	return report, nil
}

// runPolicy evaluates one policy's open requests and sweeps completions.
func (r *Runner) runPolicy(ctx context.Context, policy Policy, now time.Time, report *RunReport) {
	source, ok := r.sources[policy.RequestType]
	if !ok {
		report.Errors = append(report.Errors, RunError{
			Kind:        ErrorConfig,
			RequestType: policy.RequestType,
			PolicyID:    policy.ID,
			Message:     "no request source registered for type",
		})
		return
	}

	open, err := source.ListOpen(ctx)
	if err != nil {
		// Source failure skips this policy's whole batch; other
		// policies still run.
		log.Printf("sla: source for %s: %v", policy.RequestType, err)
		report.Errors = append(report.Errors, RunError{
			Kind:        ErrorSource,
			RequestType: policy.RequestType,
			PolicyID:    policy.ID,
			Message:     err.Error(),
		})
		return
	}

	openIDs := make(map[string]bool, len(open))
	for _, req := range open {
		openIDs[req.ID] = true
	}

	// Requests tracked as open in a previous run that no longer appear
	// in the open set have completed: freeze their logs.
	tracked, err := r.logs.ListOpenByPolicy(ctx, policy.ID)
	if err != nil {
		report.Errors = append(report.Errors, RunError{
			Kind:        ErrorPersist,
			RequestType: policy.RequestType,
			PolicyID:    policy.ID,
			Message:     fmt.Sprintf("listing open logs: %v", err),
		})
	} else {
		for _, l := range tracked {
			if openIDs[l.RequestID] {
				continue
			}
			if err := r.logs.MarkCompleted(ctx, policy.ID, l.RequestID, now); err != nil {
				report.Errors = append(report.Errors, RunError{
					Kind:        ErrorPersist,
					RequestType: policy.RequestType,
					PolicyID:    policy.ID,
					RequestID:   l.RequestID,
					Message:     err.Error(),
				})
				continue
			}
			report.Completed++
		}
	}

	for _, req := range open {
		r.runRequest(ctx, policy, req, now, report)
	}
}

// runRequest evaluates a single open request: compute, persist, then
// notify. Persistence strictly precedes notification so a duplicate send
// is bounded to one race window, never repeated on every run.
func (r *Runner) runRequest(ctx context.Context, policy Policy, req TrackedRequest, now time.Time, report *RunReport) {
	prior, err := r.logs.Get(ctx, policy.ID, req.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		report.Errors = append(report.Errors, RunError{
			Kind:        ErrorPersist,
			RequestType: policy.RequestType,
			PolicyID:    policy.ID,
			RequestID:   req.ID,
			Message:     fmt.Sprintf("reading log: %v", err),
		})
		return
	}
	if prior != nil && prior.CompletedDate != nil {
		// Terminal: excluded from evaluation, state frozen.
		return
	}

	eval := Evaluate(policy, req, now, prior)

	priorLevel := 0
	priorBreached := false
	if prior != nil {
		priorLevel = prior.EscalationLevel
		priorBreached = prior.IsBreached
	}

	if err := r.logs.Upsert(ctx, eval.Log); err != nil {
		// Excluded from the counts: a persist failure must be
		// distinguishable from "no escalation needed".
		report.Errors = append(report.Errors, RunError{
			Kind:        ErrorPersist,
			RequestType: policy.RequestType,
			PolicyID:    policy.ID,
			RequestID:   req.ID,
			Message:     err.Error(),
		})
		return
	}

	report.Checked++
	if eval.Log.EscalationLevel > priorLevel {
		report.Escalated++
	}
	if eval.Log.IsBreached && !priorBreached {
		report.Breached++
	}

	if len(eval.Due) == 0 || !policy.AutoSendEmails {
		// Monitor-only mode still surfaces the transition via the log.
		return
	}

	for _, due := range eval.Due {
		sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
		err := r.sender.Send(sendCtx, due.Recipients, escalationMessage(policy, req, eval.Log, due.Level))
		cancel()
		if err != nil {
			log.Printf("sla: notify level %d for %s %s: %v", due.Level, policy.RequestType, req.ID, err)
			report.Errors = append(report.Errors, RunError{
				Kind:        ErrorSend,
				RequestType: policy.RequestType,
				PolicyID:    policy.ID,
				RequestID:   req.ID,
				Message:     fmt.Sprintf("level %d: %v", due.Level, err),
			})
		}
	}
}

// escalationMessage builds the notification content for one level transition.
func escalationMessage(policy Policy, req TrackedRequest, l Log, level int) mailer.Message {
	subject := fmt.Sprintf("[SLA] Level %d escalation: %s %s", level, policy.RequestType, req.ID)

	breach := "within target"
	if l.IsBreached {
		breach = "TARGET BREACHED"
	}
	body := fmt.Sprintf(
		"Policy: %s\nRequest: %s (%s)\nReference: %s\nOpened: %s\nElapsed: %.1f hours (target %.1f hours, %s)\nEscalation level: %d\n",
		policy.Name, req.ID, policy.RequestType, req.Reference,
		l.StartedAt.Format(time.RFC3339), l.ElapsedHours,
		policy.TargetCompletionHours, breach, level,
	)
	return mailer.Message{Subject: subject, Body: body}
}
