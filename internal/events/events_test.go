package events

import (
	"context"
	"strings"
	"testing"
	"time"

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

func TestEventCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	starts := time.Date(2025, 7, 4, 18, 0, 0, 0, time.UTC)
	ends := starts.Add(3 * time.Hour)
	e := &Event{
		CampID:        "camp-1",
		Title:         "Movie night",
		DescriptionMD: "**Outdoor screening** at the mess hall.",
		StartsAt:      starts,
		EndsAt:        &ends,
	}
	if err := store.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Movie night" || got.EndsAt == nil || !got.EndsAt.Equal(ends) {
		t.Errorf("unexpected event: %+v", got)
	}

	got.Title = "Movie night (rescheduled)"
	got.EndsAt = nil
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	updated, err := store.Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if updated.EndsAt != nil {
		t.Errorf("ends_at not cleared: %+v", updated)
	}

	list, err := store.List(ctx, "camp-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("camp filter wrong: %+v", list)
	}

	if err := store.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestRenderDescription(t *testing.T) {
	html, err := RenderDescription("# BBQ\n\nBring your *own* plates.\n\n~~Cancelled~~")
	if err != nil {
		t.Fatalf("RenderDescription: %v", err)
	}
	for _, want := range []string{"<h1", "<em>own</em>", "<del>Cancelled</del>"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q:\n%s", want, html)
		}
	}
}
