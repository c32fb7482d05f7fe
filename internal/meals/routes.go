package meals

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts meal preference endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/meals", func(r chi.Router) {
		r.Get("/counts", countsHandler(store))
		r.Get("/{employeeID}", getHandler(store))
		r.Put("/{employeeID}", setHandler(store))
		r.Delete("/{employeeID}", deleteHandler(store))
	})
}

func getHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "employeeID"))
		if err != nil {
			http.Error(w, "meal preference not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func setHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Preference
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		p.EmployeeID = chi.URLParam(r, "employeeID")
		if p.Diet != "" && !p.Diet.Valid() {
			http.Error(w, "unknown diet", http.StatusBadRequest)
			return
		}
		if err := store.Set(r.Context(), &p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func deleteHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
			http.Error(w, "meal preference not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func countsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := store.Counts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, counts)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
