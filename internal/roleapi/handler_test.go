package roleapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlerCreateAndGetRole(t *testing.T) {
	store := newTestStore(t)
	server := httptest.NewServer(NewMux(store))
	defer server.Close()

	body, _ := json.Marshal(Role{ID: "pirate", Name: "Pirate", Prompt: "talk like a pirate", Voice: "voice-pirate"})
	resp, err := http.Post(server.URL+"/api/roles", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	getResp, err := http.Get(server.URL + "/api/roles/pirate")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}
	var got Role
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Pirate" {
		t.Fatalf("expected Pirate, got %q", got.Name)
	}
}

func TestHandlerGetMissingRoleReturns404(t *testing.T) {
	store := newTestStore(t)
	server := httptest.NewServer(NewMux(store))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/roles/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandlerListRoles(t *testing.T) {
	store := newTestStore(t)
	store.Create(Role{ID: "a", Name: "Alpha"})
	store.Create(Role{ID: "b", Name: "Beta"})
	server := httptest.NewServer(NewMux(store))
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/roles")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var roles []Role
	if err := json.NewDecoder(resp.Body).Decode(&roles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
}

func TestHandlerDeleteRole(t *testing.T) {
	store := newTestStore(t)
	store.Create(Role{ID: "a", Name: "Alpha"})
	server := httptest.NewServer(NewMux(store))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodDelete, server.URL+"/api/roles/a", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	if _, err := store.Get("a"); err != ErrNotFound {
		t.Fatalf("expected role to be gone after DELETE, got %v", err)
	}
}

func TestHandlerSetDefaultRole(t *testing.T) {
	store := newTestStore(t)
	store.Create(Role{ID: "a", IsDefault: true})
	store.Create(Role{ID: "b"})
	server := httptest.NewServer(NewMux(store))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodPost, server.URL+"/api/roles/b/default", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST default: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	def, err := store.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if def.ID != "b" {
		t.Fatalf("expected b to be default, got %q", def.ID)
	}
}
