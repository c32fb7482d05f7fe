package sla

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/campops/campops/internal/db"
)

func newLogStore(t *testing.T) *LogStore {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewLogStore(database)
}

func testLog(level int, breached bool, at time.Time) Log {
	return Log{
		PolicyID:        "pol-1",
		RequestID:       "req-1",
		RequestType:     TypeTransfer,
		StartedAt:       baseTime,
		ElapsedHours:    at.Sub(baseTime).Hours(),
		EscalationLevel: level,
		IsBreached:      breached,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
}

func TestLogUpsertCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	store := newLogStore(t)

	if _, err := store.Get(ctx, "pol-1", "req-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows before insert, got %v", err)
	}

	first := testLog(0, false, baseTime.Add(2*time.Hour))
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := testLog(1, false, baseTime.Add(20*time.Hour))
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := store.Get(ctx, "pol-1", "req-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.EscalationLevel != 1 || got.ElapsedHours != 20 {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestLogUpsertRatchetsInStatement(t *testing.T) {
	ctx := context.Background()
	store := newLogStore(t)

	if err := store.Upsert(ctx, testLog(2, true, baseTime.Add(31*time.Hour))); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// A stale writer carrying lower state cannot lower the row.
	stale := testLog(1, false, baseTime.Add(32*time.Hour))
	if err := store.Upsert(ctx, stale); err != nil {
		t.Fatalf("stale Upsert: %v", err)
	}

	got, err := store.Get(ctx, "pol-1", "req-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.EscalationLevel != 2 {
		t.Errorf("escalation level lowered to %d", got.EscalationLevel)
	}
	if !got.IsBreached {
		t.Error("breach flag cleared")
	}
	// Non-ratchet fields do take the newer value.
	if got.ElapsedHours != 32 {
		t.Errorf("elapsed_hours not updated: %g", got.ElapsedHours)
	}
}

func TestMarkCompletedFreezesLog(t *testing.T) {
	ctx := context.Background()
	store := newLogStore(t)

	if err := store.Upsert(ctx, testLog(1, false, baseTime.Add(20*time.Hour))); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	completedAt := baseTime.Add(22 * time.Hour)
	if err := store.MarkCompleted(ctx, "pol-1", "req-1", completedAt); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	// Upserts after completion are ignored by the guard clause.
	late := testLog(2, true, baseTime.Add(40*time.Hour))
	if err := store.Upsert(ctx, late); err != nil {
		t.Fatalf("late Upsert: %v", err)
	}

	got, err := store.Get(ctx, "pol-1", "req-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CompletedDate == nil || !got.CompletedDate.Equal(completedAt) {
		t.Errorf("completed_date wrong: %v", got.CompletedDate)
	}
	if got.EscalationLevel != 1 || got.IsBreached || got.ElapsedHours != 20 {
		t.Errorf("completed log mutated: %+v", got)
	}

	// MarkCompleted on an already-completed log is a no-op.
	if err := store.MarkCompleted(ctx, "pol-1", "req-1", baseTime.Add(50*time.Hour)); err != nil {
		t.Fatalf("second MarkCompleted: %v", err)
	}
	again, _ := store.Get(ctx, "pol-1", "req-1")
	if !again.CompletedDate.Equal(completedAt) {
		t.Errorf("completed_date moved: %v", again.CompletedDate)
	}
}

func TestListOpenByPolicy(t *testing.T) {
	ctx := context.Background()
	store := newLogStore(t)

	open := testLog(1, false, baseTime.Add(20*time.Hour))
	if err := store.Upsert(ctx, open); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	done := testLog(0, false, baseTime.Add(2*time.Hour))
	done.RequestID = "req-2"
	if err := store.Upsert(ctx, done); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.MarkCompleted(ctx, "pol-1", "req-2", baseTime.Add(3*time.Hour)); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	logs, err := store.ListOpenByPolicy(ctx, "pol-1")
	if err != nil {
		t.Fatalf("ListOpenByPolicy: %v", err)
	}
	if len(logs) != 1 || logs[0].RequestID != "req-1" {
		t.Errorf("expected only the open log, got %+v", logs)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	store := newLogStore(t)

	breached := testLog(2, true, baseTime.Add(31*time.Hour))
	if err := store.Upsert(ctx, breached); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	fine := testLog(0, false, baseTime.Add(1*time.Hour))
	fine.RequestID = "req-2"
	fine.RequestType = TypeMaintenance
	if err := store.Upsert(ctx, fine); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	truthy := true
	logs, err := store.List(ctx, LogFilter{Breached: &truthy})
	if err != nil {
		t.Fatalf("List breached: %v", err)
	}
	if len(logs) != 1 || logs[0].RequestID != "req-1" {
		t.Errorf("breached filter wrong: %+v", logs)
	}

	logs, err = store.List(ctx, LogFilter{RequestType: TypeMaintenance})
	if err != nil {
		t.Fatalf("List by type: %v", err)
	}
	if len(logs) != 1 || logs[0].RequestID != "req-2" {
		t.Errorf("type filter wrong: %+v", logs)
	}

	logs, err = store.List(ctx, LogFilter{Limit: 1})
	if err != nil {
		t.Fatalf("List with limit: %v", err)
	}
	if len(logs) != 1 {
		t.Errorf("limit ignored: %d rows", len(logs))
	}
}
