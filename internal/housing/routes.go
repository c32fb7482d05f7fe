package housing

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campops/campops/internal/audit"
)

// RegisterRoutes mounts camp, room, and transfer endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, auditStore *audit.Store) {
	r.Route("/api/camps", func(r chi.Router) {
		r.Get("/", listCampsHandler(store))
		r.Post("/", createCampHandler(store))
		r.Get("/{id}", getCampHandler(store))
		r.Put("/{id}", updateCampHandler(store))
		r.Delete("/{id}", deleteCampHandler(store))
		r.Get("/{id}/rooms", listRoomsHandler(store))
		r.Post("/{id}/rooms", createRoomHandler(store))
	})

	r.Route("/api/transfers", func(r chi.Router) {
		r.Get("/", listTransfersHandler(store))
		r.Post("/", createTransferHandler(store))
		r.Get("/{id}", getTransferHandler(store))
		r.Post("/{id}/complete", completeTransferHandler(store, auditStore))
		r.Post("/{id}/cancel", cancelTransferHandler(store))
	})

	r.Post("/api/assignments", assignHandler(store))
	r.Delete("/api/assignments/{employeeID}", unassignHandler(store))
	r.Get("/api/rooms/{id}/assignments", listAssignmentsHandler(store))
}

func listCampsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camps, err := store.ListCamps(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if camps == nil {
			camps = []Camp{}
		}
		writeJSON(w, http.StatusOK, camps)
	}
}

func getCampHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		camp, err := store.GetCamp(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "camp not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, camp)
	}
}

func createCampHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Camp
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if c.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := store.CreateCamp(r.Context(), &c); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func updateCampHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Camp
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		c.ID = chi.URLParam(r, "id")
		if err := store.UpdateCamp(r.Context(), &c); err != nil {
			http.Error(w, "camp not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func deleteCampHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteCamp(r.Context(), chi.URLParam(r, "id")); err != nil {
			http.Error(w, "camp not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listRoomsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := store.ListRooms(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if rooms == nil {
			rooms = []Room{}
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

func createRoomHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var room Room
		if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		room.CampID = chi.URLParam(r, "id")
		if room.Number == "" {
			http.Error(w, "number is required", http.StatusBadRequest)
			return
		}
		if err := store.CreateRoom(r.Context(), &room); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, room)
	}
}

func listTransfersHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transfers, err := store.ListTransfers(r.Context(), TransferStatus(r.URL.Query().Get("status")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if transfers == nil {
			transfers = []TransferRequest{}
		}
		writeJSON(w, http.StatusOK, transfers)
	}
}

func getTransferHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTransfer(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, "transfer not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func createTransferHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if t.EmployeeID == "" || t.FromCampID == "" || t.ToCampID == "" {
			http.Error(w, "employee_id, from_camp_id, and to_camp_id are required", http.StatusBadRequest)
			return
		}
		if err := store.CreateTransfer(r.Context(), &t); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func completeTransferHandler(store *Store, auditStore *audit.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.CompleteTransfer(r.Context(), id); err != nil {
			http.Error(w, "open transfer not found", http.StatusNotFound)
			return
		}

		auditStore.Log(r.Context(), audit.Entry{
			ActorType: audit.ActorUser,
			ActorID:   actorID(r),
			Action:    audit.ActionTransferCompleted,
			Scope:     audit.ScopeRequest,
			ScopeID:   id,
			Summary:   fmt.Sprintf("completed transfer request %s", id),
		})

		w.WriteHeader(http.StatusNoContent)
	}
}

func cancelTransferHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.CancelTransfer(r.Context(), chi.URLParam(r, "id")); err != nil {
			http.Error(w, "open transfer not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func assignHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a Assignment
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if a.EmployeeID == "" || a.RoomID == "" {
			http.Error(w, "employee_id and room_id are required", http.StatusBadRequest)
			return
		}
		if err := store.Assign(r.Context(), a.EmployeeID, a.RoomID); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func unassignHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Unassign(r.Context(), chi.URLParam(r, "employeeID")); err != nil {
			http.Error(w, "assignment not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listAssignmentsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignments, err := store.ListAssignments(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if assignments == nil {
			assignments = []Assignment{}
		}
		writeJSON(w, http.StatusOK, assignments)
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
