package meals

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

func TestSetUpsertsPerEmployee(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	p := &Preference{EmployeeID: "emp-1", Diet: DietVegetarian, Allergies: "peanuts"}
	if err := store.Set(ctx, p); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Second Set replaces, never duplicates.
	p.Diet = DietHalal
	p.Allergies = ""
	if err := store.Set(ctx, p); err != nil {
		t.Fatalf("second Set: %v", err)
	}

	got, err := store.Get(ctx, "emp-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Diet != DietHalal || got.Allergies != "" {
		t.Errorf("unexpected preference: %+v", got)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[DietHalal] != 1 || len(counts) != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestDeletePreference(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if err := store.Set(ctx, &Preference{EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, "emp-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "emp-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
	if _, err := store.Get(ctx, "emp-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows after delete, got %v", err)
	}
}
