package events

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts camp event endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/events", func(r chi.Router) {
		r.Get("/", listHandler(store))
		r.Post("/", createHandler(store))
		r.Get("/{id}", getHandler(store))
		r.Put("/{id}", updateHandler(store))
		r.Delete("/{id}", deleteHandler(store))
	})
}

func listHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := store.List(r.Context(), r.URL.Query().Get("camp_id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func getHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		html, err := RenderDescription(e.DescriptionMD)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		e.DescriptionHTML = html
		writeJSON(w, http.StatusOK, e)
	}
}

func createHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if e.CampID == "" || e.Title == "" || e.StartsAt.IsZero() {
			http.Error(w, "camp_id, title, and starts_at are required", http.StatusBadRequest)
			return
		}
		if err := store.Create(r.Context(), &e); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func updateHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		e.ID = chi.URLParam(r, "id")
		if err := store.Update(r.Context(), &e); err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func deleteHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			http.Error(w, "event not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
