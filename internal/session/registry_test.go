package session

import (
	"context"
	"testing"
)

func testSession(id string) *Session {
	return NewSession(context.Background(), id, id+"-sess", nil, nil, nil, nil, nil)
}

func TestRegistryPutAndGet(t *testing.T) {
	r := NewRegistry()
	s := testSession("dev-1")
	r.Put("dev-1", s)

	got, ok := r.Get("dev-1")
	if !ok || got != s {
		t.Fatalf("expected to get back the registered session")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 registered session, got %d", r.Len())
	}
}

func TestRegistryPutReplacesAndClosesPrior(t *testing.T) {
	r := NewRegistry()
	first := testSession("dev-1")
	r.Put("dev-1", first)

	second := testSession("dev-1")
	r.Put("dev-1", second)

	if first.Context().Err() == nil {
		t.Fatalf("expected the prior session's context to be cancelled on replacement")
	}
	got, _ := r.Get("dev-1")
	if got != second {
		t.Fatalf("expected the registry to hold the newest session")
	}
}

func TestRegistryRemoveFiresCancellation(t *testing.T) {
	r := NewRegistry()
	s := testSession("dev-1")
	r.Put("dev-1", s)
	r.Remove("dev-1", s)

	if _, ok := r.Get("dev-1"); ok {
		t.Fatalf("expected session removed from registry")
	}
	if s.Context().Err() == nil {
		t.Fatalf("expected cancellation token fired on removal")
	}
}

func TestRegistryRemoveIsNoOpForStaleSession(t *testing.T) {
	r := NewRegistry()
	first := testSession("dev-1")
	second := testSession("dev-1")
	r.Put("dev-1", first)
	r.Put("dev-1", second)

	r.Remove("dev-1", first) // stale handle from before replacement
	got, ok := r.Get("dev-1")
	if !ok || got != second {
		t.Fatalf("expected the current session to remain registered after a stale Remove")
	}
}
