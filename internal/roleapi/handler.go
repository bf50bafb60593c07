package roleapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// NewMux mounts the role CRUD endpoints onto a fresh http.ServeMux, using
// Go's method+path pattern matching (stdlib net/http, no router dependency —
// the teacher carries no web framework for its HTTP surface either).
func NewMux(store *Store) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/roles", listRoles(store))
	mux.HandleFunc("GET /api/roles/default", getDefaultRole(store))
	mux.HandleFunc("GET /api/roles/{id}", getRole(store))
	mux.HandleFunc("POST /api/roles", createRole(store))
	mux.HandleFunc("PUT /api/roles/{id}", updateRole(store))
	mux.HandleFunc("DELETE /api/roles/{id}", deleteRole(store))
	mux.HandleFunc("POST /api/roles/{id}/default", setDefaultRole(store))
	return mux
}

func listRoles(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, store.List())
	}
}

func getRole(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := store.Get(r.PathValue("id"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, role)
	}
}

func getDefaultRole(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, err := store.Default()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, role)
	}
}

func createRole(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var role Role
		if err := json.NewDecoder(r.Body).Decode(&role); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if role.ID == "" {
			role.ID = uuid.NewString()
		}
		if err := store.Create(role); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, role)
	}
}

func updateRole(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var role Role
		if err := json.NewDecoder(r.Body).Decode(&role); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := store.Update(id, role); err != nil {
			writeErr(w, err)
			return
		}
		updated, _ := store.Get(id)
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteRole(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.PathValue("id")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func setDefaultRole(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.SetDefault(r.PathValue("id")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
