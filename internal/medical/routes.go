package medical

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campops/campops/internal/audit"
)

// RegisterRoutes mounts medical record endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, auditStore *audit.Store) {
	r.Route("/api/medical", func(r chi.Router) {
		r.Get("/expiring", expiringHandler(store))
		r.Get("/{employeeID}", getHandler(store))
		r.Put("/{employeeID}", setHandler(store, auditStore))
	})
}

func getHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := store.Get(r.Context(), chi.URLParam(r, "employeeID"))
		if err != nil {
			http.Error(w, "medical record not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func setHandler(store *Store, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec Record
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		rec.EmployeeID = chi.URLParam(r, "employeeID")
		if rec.FitnessStatus != "" && !rec.FitnessStatus.Valid() {
			http.Error(w, "unknown fitness status", http.StatusBadRequest)
			return
		}
		if err := store.Set(r.Context(), &rec); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionMedicalRecordModified,
			Scope:     audit.ScopeEmployee,
			ScopeID:   rec.EmployeeID,
			Summary:   fmt.Sprintf("medical record updated for employee %s", rec.EmployeeID),
		})

		writeJSON(w, http.StatusOK, rec)
	}
}

// expiringHandler lists records whose fitness certification expires within
// the window given by the days query parameter (default 30).
func expiringHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 30
		if v := r.URL.Query().Get("days"); v != "" {
			if _, err := fmt.Sscanf(v, "%d", &days); err != nil || days <= 0 {
				http.Error(w, "days must be a positive integer", http.StatusBadRequest)
				return
			}
		}

		cutoff := time.Now().UTC().AddDate(0, 0, days)
		records, err := store.ListExpiring(r.Context(), cutoff)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []Record{}
		}
		writeJSON(w, http.StatusOK, records)
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
