package sla

import "time"

// Evaluation is the result of evaluating one open request against its
// policy: the next log state and the notifications newly due.
type Evaluation struct {
	Log Log
	Due []DueNotification
}

// Evaluate computes the next log state for one open request and the set
// of escalation notifications newly due. It is a pure function: no I/O,
// no clock reads, fully determined by its inputs.
//
// The caller guarantees policy.RequestType == request.RequestType and
// policy.IsActive; the runner enforces both.
func Evaluate(policy Policy, request TrackedRequest, now time.Time, prior *Log) Evaluation {
	startedAt := request.CreatedAt
	priorLevel := 0
	priorBreached := false
	createdAt := now
	if prior != nil {
		startedAt = prior.StartedAt
		priorLevel = prior.EscalationLevel
		priorBreached = prior.IsBreached
		createdAt = prior.CreatedAt
	}

	elapsed := now.Sub(startedAt).Hours()

	// Threshold comparisons use >=: crossing exactly at the threshold counts.
	newLevel := 0
	switch {
	case policy.Level2Hours != nil && elapsed >= *policy.Level2Hours:
		newLevel = 2
	case policy.Level1Hours != nil && elapsed >= *policy.Level1Hours:
		newLevel = 1
	}

	// Ratchet: never de-escalate, never clear a breach.
	effectiveLevel := newLevel
	if priorLevel > effectiveLevel {
		effectiveLevel = priorLevel
	}
	breached := priorBreached || elapsed >= policy.TargetCompletionHours

	// Edge-triggered: a level fires exactly once, on the run where it is
	// first reached, and only if recipients are configured for it.
	var due []DueNotification
	for _, level := range []int{1, 2} {
		if effectiveLevel < level || priorLevel >= level {
			continue
		}
		recipients := policy.recipientsFor(level)
		if len(recipients) == 0 {
			continue
		}
		due = append(due, DueNotification{Level: level, Recipients: recipients})
	}

	return Evaluation{
		Log: Log{
			PolicyID:        policy.ID,
			RequestID:       request.ID,
			RequestType:     request.RequestType,
			StartedAt:       startedAt,
			ElapsedHours:    elapsed,
			EscalationLevel: effectiveLevel,
			IsBreached:      breached,
			CompletedDate:   nil,
			CreatedAt:       createdAt,
			UpdatedAt:       now,
		},
		Due: due,
	}
}
