package housing

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/campops/campops/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestCampCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	c := &Camp{Name: "North Camp", Location: "Block A", Capacity: 400}
	if err := store.CreateCamp(ctx, c); err != nil {
		t.Fatalf("CreateCamp: %v", err)
	}

	got, err := store.GetCamp(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCamp: %v", err)
	}
	if got.Name != "North Camp" || got.Capacity != 400 {
		t.Errorf("unexpected camp: %+v", got)
	}

	got.Capacity = 450
	if err := store.UpdateCamp(ctx, got); err != nil {
		t.Fatalf("UpdateCamp: %v", err)
	}

	camps, err := store.ListCamps(ctx)
	if err != nil {
		t.Fatalf("ListCamps: %v", err)
	}
	if len(camps) != 1 || camps[0].Capacity != 450 {
		t.Errorf("unexpected camps: %+v", camps)
	}

	if err := store.DeleteCamp(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCamp: %v", err)
	}
	if err := store.DeleteCamp(ctx, c.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows on second delete, got %v", err)
	}
}

func TestAssignRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	c := &Camp{Name: "North Camp"}
	if err := store.CreateCamp(ctx, c); err != nil {
		t.Fatalf("CreateCamp: %v", err)
	}
	room := &Room{CampID: c.ID, Number: "101", Capacity: 2}
	if err := store.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if err := store.Assign(ctx, "emp-1", room.ID); err != nil {
		t.Fatalf("Assign emp-1: %v", err)
	}
	if err := store.Assign(ctx, "emp-2", room.ID); err != nil {
		t.Fatalf("Assign emp-2: %v", err)
	}
	if err := store.Assign(ctx, "emp-3", room.ID); err == nil {
		t.Error("expected capacity error for third occupant")
	}

	// Re-assigning an existing occupant is not blocked by capacity.
	if err := store.Assign(ctx, "emp-1", room.ID); err != nil {
		t.Errorf("re-assigning occupant: %v", err)
	}

	assignments, err := store.ListAssignments(ctx, room.ID)
	if err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if len(assignments) != 2 {
		t.Errorf("expected 2 assignments, got %d", len(assignments))
	}

	if err := store.Unassign(ctx, "emp-1"); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if err := store.Assign(ctx, "emp-3", room.ID); err != nil {
		t.Errorf("expected freed slot to be assignable: %v", err)
	}
}

func TestTransferLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	tr := &TransferRequest{
		EmployeeID: "emp-1",
		FromCampID: "camp-a",
		ToCampID:   "camp-b",
		Reason:     "closer to site",
		// Clients cannot pre-close a transfer.
		Status: TransferCompleted,
	}
	if err := store.CreateTransfer(ctx, tr); err != nil {
		t.Fatalf("CreateTransfer: %v", err)
	}
	if tr.Status != TransferOpen {
		t.Errorf("new transfer must be open, got %s", tr.Status)
	}

	open, err := store.ListOpenTransfers(ctx)
	if err != nil {
		t.Fatalf("ListOpenTransfers: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected one open transfer, got %d", len(open))
	}

	if err := store.CompleteTransfer(ctx, tr.ID); err != nil {
		t.Fatalf("CompleteTransfer: %v", err)
	}
	got, err := store.GetTransfer(ctx, tr.ID)
	if err != nil {
		t.Fatalf("GetTransfer: %v", err)
	}
	if got.Status != TransferCompleted || got.CompletedAt == nil {
		t.Errorf("unexpected state after completion: %+v", got)
	}

	// Completing or cancelling a closed transfer fails.
	if err := store.CompleteTransfer(ctx, tr.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows on double complete, got %v", err)
	}
	if err := store.CancelTransfer(ctx, tr.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows cancelling completed transfer, got %v", err)
	}

	open, err = store.ListOpenTransfers(ctx)
	if err != nil {
		t.Fatalf("ListOpenTransfers: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("expected no open transfers, got %+v", open)
	}
}
