package hiring

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campops/campops/internal/audit"
)

// RegisterRoutes mounts hiring request endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, auditStore *audit.Store) {
	r.Route("/api/hiring", func(r chi.Router) {
		r.Get("/", listHandler(store))
		r.Post("/", createHandler(store))
		r.Get("/{id}", getHandler(store))
		r.Post("/{id}/transition", transitionHandler(store, auditStore))
	})
}

func listHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := store.List(r.Context(), Status(r.URL.Query().Get("status")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if requests == nil {
			requests = []Request{}
		}
		writeJSON(w, http.StatusOK, requests)
	}
}

func getHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "hiring request not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func createHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.CampID == "" || req.Position == "" {
			http.Error(w, "camp_id and position are required", http.StatusBadRequest)
			return
		}
		if err := store.Create(r.Context(), &req); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, req)
	}
}

func transitionHandler(store *Store, auditStore *audit.Store) http.HandlerFunc {
	type transitionBody struct {
		To Status `json:"to"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var body transitionBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if !body.To.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "id")
		req, err := store.Transition(r.Context(), id, body.To)
		if err != nil {
			var bad ErrBadTransition
			switch {
			case errors.As(err, &bad):
				http.Error(w, bad.Error(), http.StatusConflict)
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "hiring request not found", http.StatusNotFound)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionHiringTransition,
			Scope:     audit.ScopeRequest,
			ScopeID:   id,
			Summary:   fmt.Sprintf("hiring request %s moved to %s", id, body.To),
		})

		writeJSON(w, http.StatusOK, req)
	}
}

// actorID extracts the acting user from the X-Actor header.
func actorID(r *http.Request) string {
	if v := r.Header.Get("X-Actor"); v != "" {
		return v
	}
	return "api"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
