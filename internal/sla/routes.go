package sla

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campops/campops/internal/audit"
)

// RegisterRoutes mounts SLA endpoints under /api/sla on the given router.
func RegisterRoutes(r chi.Router, policies *PolicyStore, logs *LogStore, runner *Runner, feed *Feed, auditStore *audit.Store) {
	r.Route("/api/sla", func(r chi.Router) {
		r.Get("/policies", listPoliciesHandler(policies))
		r.Post("/policies", createPolicyHandler(policies, auditStore))
		r.Get("/policies/{id}", getPolicyHandler(policies))
		r.Put("/policies/{id}", updatePolicyHandler(policies, auditStore))
		r.Delete("/policies/{id}", deletePolicyHandler(policies, auditStore))
		r.Get("/logs", listLogsHandler(logs))
		r.Post("/check", checkHandler(runner, auditStore))
		r.Get("/ws", feed.handleWebSocket)
	})
}

func listPoliciesHandler(store *PolicyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policies, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if policies == nil {
			policies = []Policy{}
		}
		writeJSON(w, http.StatusOK, policies)
	}
}

func getPolicyHandler(store *PolicyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := store.Get(r.Context(), id)
		if err != nil {
			http.Error(w, "policy not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func createPolicyHandler(store *PolicyStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Policy
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if err := store.Create(r.Context(), &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionPolicyCreated,
			Scope:     audit.ScopePolicy,
			ScopeID:   p.ID,
			Summary:   fmt.Sprintf("created policy %q for %s", p.Name, p.RequestType),
		})

		writeJSON(w, http.StatusCreated, p)
	}
}

func updatePolicyHandler(store *PolicyStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		prev, err := store.Get(r.Context(), id)
		if err != nil {
			http.Error(w, "policy not found", http.StatusNotFound)
			return
		}

		var p Policy
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		p.ID = id
		if err := store.Update(r.Context(), &p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		prevJSON, _ := json.Marshal(prev)
		newJSON, _ := json.Marshal(p)
		auditStore.Log(r.Context(), audit.Entry{
			ActorType:     audit.ActorUser,
			ActorID:       actorID(r),
			Action:        audit.ActionPolicyUpdated,
			Scope:         audit.ScopePolicy,
			ScopeID:       id,
			Summary:       fmt.Sprintf("updated policy %q", p.Name),
			PreviousValue: string(prevJSON),
			NewValue:      string(newJSON),
		})

		writeJSON(w, http.StatusOK, p)
	}
}

func deletePolicyHandler(store *PolicyStore, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), id); err != nil {
			http.Error(w, "policy not found", http.StatusNotFound)
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionPolicyDeleted,
			Scope:     audit.ScopePolicy,
			ScopeID:   id,
			Summary:   "deleted policy",
		})

		w.WriteHeader(http.StatusNoContent)
	}
}

func listLogsHandler(store *LogStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := LogFilter{}
		if v := q.Get("request_type"); v != "" {
			filter.RequestType = RequestType(v)
		}
		if v := q.Get("breached"); v != "" {
			b := v == "true" || v == "1"
			filter.Breached = &b
		}
		if v := q.Get("open"); v != "" {
			b := v == "true" || v == "1"
			filter.Open = &b
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}

		logs, err := store.List(r.Context(), filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if logs == nil {
			logs = []Log{}
		}
		writeJSON(w, http.StatusOK, logs)
	}
}

func checkHandler(runner *Runner, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := runner.Run(r.Context())
		if err != nil {
			if errors.Is(err, ErrRunInProgress) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionSLARunCompleted,
			Scope:     audit.ScopeRun,
			Summary: fmt.Sprintf("checked=%d escalated=%d breached=%d completed=%d errors=%d",
				report.Checked, report.Escalated, report.Breached, report.Completed, len(report.Errors)),
		})

		writeJSON(w, http.StatusOK, report)
	}
}

// actorID extracts the acting user from the X-Actor header, defaulting
// to "api" for unattributed calls.
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
