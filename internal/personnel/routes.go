package personnel

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campops/campops/internal/audit"
)

// RegisterRoutes mounts employee endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, auditStore *audit.Store) {
	r.Route("/api/personnel", func(r chi.Router) {
		r.Get("/", listHandler(store))
		r.Post("/", createHandler(store))
		r.Post("/import", importHandler(store, auditStore))
		r.Get("/{id}", getHandler(store))
		r.Put("/{id}", updateHandler(store))
		r.Delete("/{id}", deleteHandler(store))
	})
}

func listHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employees, err := store.List(r.Context(),
			EmployeeStatus(r.URL.Query().Get("status")),
			r.URL.Query().Get("company"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if employees == nil {
			employees = []Employee{}
		}
		writeJSON(w, http.StatusOK, employees)
	}
}

func getHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "employee not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func createHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e Employee
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if e.BadgeNo == "" || e.FirstName == "" || e.LastName == "" {
			http.Error(w, "badge_no, first_name, and last_name are required", http.StatusBadRequest)
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
		var e Employee
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		e.ID = chi.URLParam(r, "id")
		if err := store.Update(r.Context(), &e); err != nil {
			http.Error(w, "employee not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func deleteHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			http.Error(w, "employee not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// importHandler accepts a roster CSV body and upserts each row.
func importHandler(store *Store, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := store.ImportCSV(r.Context(), r.Body, nil)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionEmployeeImported,
			Scope:     audit.ScopeEmployee,
			Summary:   fmt.Sprintf("imported %d employees (%d skipped)", result.Imported, result.Skipped),
		})

		writeJSON(w, http.StatusOK, result)
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
