package maintenance

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campops/campops/internal/audit"
)

// RegisterRoutes mounts asset and maintenance request endpoints on the
// given router.
func RegisterRoutes(r chi.Router, store *Store, auditStore *audit.Store) {
	r.Route("/api/assets", func(r chi.Router) {
		r.Get("/", listAssetsHandler(store))
		r.Post("/", createAssetHandler(store))
		r.Get("/{id}", getAssetHandler(store))
		r.Put("/{id}", updateAssetHandler(store))
	})

	r.Route("/api/maintenance", func(r chi.Router) {
		r.Get("/", listRequestsHandler(store))
		r.Post("/", createRequestHandler(store))
		r.Get("/{id}", getRequestHandler(store))
		r.Post("/{id}/complete", completeRequestHandler(store, auditStore))
		r.Post("/{id}/cancel", cancelRequestHandler(store))
	})
}

func listAssetsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := store.ListAssets(r.Context(), r.URL.Query().Get("camp_id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if assets == nil {
			assets = []Asset{}
		}
		writeJSON(w, http.StatusOK, assets)
	}
}

func getAssetHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAsset(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "asset not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func createAssetHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a Asset
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if a.Tag == "" || a.Name == "" {
			http.Error(w, "tag and name are required", http.StatusBadRequest)
			return
		}
		if err := store.CreateAsset(r.Context(), &a); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func updateAssetHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a Asset
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		a.ID = chi.URLParam(r, "id")
		if err := store.UpdateAsset(r.Context(), &a); err != nil {
			http.Error(w, "asset not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func listRequestsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requests, err := store.ListRequests(r.Context(), Status(r.URL.Query().Get("status")))
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

func getRequestHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := store.GetRequest(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "maintenance request not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func createRequestHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.CampID == "" || req.Description == "" {
			http.Error(w, "camp_id and description are required", http.StatusBadRequest)
			return
		}
		if err := store.CreateRequest(r.Context(), &req); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, req)
	}
}

func completeRequestHandler(store *Store, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.CompleteRequest(r.Context(), id); err != nil {
			http.Error(w, "open maintenance request not found", http.StatusNotFound)
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionMaintenanceCompleted,
			Scope:     audit.ScopeRequest,
			ScopeID:   id,
			Summary:   fmt.Sprintf("completed maintenance request %s", id),
		})

		w.WriteHeader(http.StatusNoContent)
	}
}

func cancelRequestHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.CancelRequest(r.Context(), chi.URLParam(r, "id")); err != nil {
			http.Error(w, "open maintenance request not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
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
