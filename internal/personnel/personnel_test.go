package personnel

import (
	"context"
	"strings"
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

func TestEmployeeCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	e := &Employee{BadgeNo: "B-1001", FirstName: "Sami", LastName: "Haddad", Trade: "welder", Company: "Acme"}
	if err := store.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.Status != StatusActive {
		t.Errorf("expected default active, got %s", e.Status)
	}

	byBadge, err := store.GetByBadge(ctx, "B-1001")
	if err != nil {
		t.Fatalf("GetByBadge: %v", err)
	}
	if byBadge.ID != e.ID {
		t.Errorf("badge lookup returned wrong employee: %+v", byBadge)
	}

	byBadge.Status = StatusOnLeave
	if err := store.Update(ctx, byBadge); err != nil {
		t.Fatalf("Update: %v", err)
	}

	onLeave, err := store.List(ctx, StatusOnLeave, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(onLeave) != 1 {
		t.Errorf("status filter wrong: %+v", onLeave)
	}

	byCompany, err := store.List(ctx, "", "Acme")
	if err != nil {
		t.Fatalf("List by company: %v", err)
	}
	if len(byCompany) != 1 {
		t.Errorf("company filter wrong: %+v", byCompany)
	}

	if err := store.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	roster := strings.Join([]string{
		"badge_no,first_name,last_name,trade,company,phone,email,status",
		"B-1001,Sami,Haddad,welder,Acme,,sami@example.com,active",
		"B-1002,Lena,Farouk,electrician,Acme,555-0101,,on_leave",
		",Missing,Badge,,,,,",
		"B-1003,Omar,Aziz,scaffolder,BuildCo,,,not_a_status",
	}, "\n")

	result, err := store.ImportCSV(ctx, strings.NewReader(roster), nil)
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 2 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 row errors, got %+v", result.Errors)
	}

	e, err := store.GetByBadge(ctx, "B-1002")
	if err != nil {
		t.Fatalf("GetByBadge: %v", err)
	}
	if e.Status != StatusOnLeave || e.Trade != "electrician" {
		t.Errorf("imported row wrong: %+v", e)
	}
}

func TestImportCSVUpsertsByBadge(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	first := "badge_no,first_name,last_name\nB-1001,Sami,Haddad\n"
	if _, err := store.ImportCSV(ctx, strings.NewReader(first), nil); err != nil {
		t.Fatalf("first import: %v", err)
	}
	orig, err := store.GetByBadge(ctx, "B-1001")
	if err != nil {
		t.Fatalf("GetByBadge: %v", err)
	}

	second := "badge_no,first_name,last_name,trade\nB-1001,Sami,Haddad,pipefitter\n"
	result, err := store.ImportCSV(ctx, strings.NewReader(second), nil)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	updated, err := store.GetByBadge(ctx, "B-1001")
	if err != nil {
		t.Fatalf("GetByBadge after reimport: %v", err)
	}
	if updated.ID != orig.ID {
		t.Error("reimport must update in place, not create a new employee")
	}
	if updated.Trade != "pipefitter" {
		t.Errorf("trade not updated: %+v", updated)
	}
}

func TestImportCSVMissingRequiredColumn(t *testing.T) {
	store := newStore(t)
	if _, err := store.ImportCSV(context.Background(), strings.NewReader("first_name,last_name\nA,B\n"), nil); err == nil {
		t.Error("expected error for missing badge_no column")
	}
}
