package maintenance

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

func TestAssetCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	a := &Asset{Tag: "AC-0042", Name: "Split AC unit", Category: "hvac"}
	if err := store.CreateAsset(ctx, a); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if a.Condition != ConditionGood {
		t.Errorf("expected default condition good, got %s", a.Condition)
	}

	got, err := store.GetAsset(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if got.Tag != "AC-0042" {
		t.Errorf("unexpected asset: %+v", got)
	}

	got.Condition = ConditionPoor
	got.CampID = "camp-1"
	if err := store.UpdateAsset(ctx, got); err != nil {
		t.Fatalf("UpdateAsset: %v", err)
	}

	byCamp, err := store.ListAssets(ctx, "camp-1")
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(byCamp) != 1 || byCamp[0].Condition != ConditionPoor {
		t.Errorf("camp filter wrong: %+v", byCamp)
	}
	none, err := store.ListAssets(ctx, "camp-2")
	if err != nil {
		t.Fatalf("ListAssets camp-2: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no assets for camp-2, got %+v", none)
	}
}

func TestRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	r := &Request{CampID: "camp-1", Description: "leaking pipe in kitchen", ReportedBy: "emp-7"}
	if err := store.CreateRequest(ctx, r); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if r.Status != StatusOpen || r.Priority != PriorityMedium {
		t.Errorf("unexpected defaults: %+v", r)
	}

	open, err := store.ListOpenRequests(ctx)
	if err != nil {
		t.Fatalf("ListOpenRequests: %v", err)
	}
	if len(open) != 1 || open[0].ID != r.ID {
		t.Fatalf("expected one open request, got %+v", open)
	}

	if err := store.CompleteRequest(ctx, r.ID); err != nil {
		t.Fatalf("CompleteRequest: %v", err)
	}
	got, err := store.GetRequest(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != StatusCompleted || got.CompletedAt == nil {
		t.Errorf("unexpected state after completion: %+v", got)
	}

	if err := store.CompleteRequest(ctx, r.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows on double complete, got %v", err)
	}

	open, err = store.ListOpenRequests(ctx)
	if err != nil {
		t.Fatalf("ListOpenRequests: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("expected no open requests, got %+v", open)
	}
}

func TestCancelOnlyOpenRequests(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	r := &Request{CampID: "camp-1", Description: "broken window", Priority: PriorityLow}
	if err := store.CreateRequest(ctx, r); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := store.CancelRequest(ctx, r.ID); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}
	if err := store.CancelRequest(ctx, r.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows cancelling twice, got %v", err)
	}

	got, err := store.GetRequest(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != StatusCancelled || got.CompletedAt != nil {
		t.Errorf("cancelled request has wrong state: %+v", got)
	}
}
