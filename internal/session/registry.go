package session

import "sync"

// Registry is C11: a map from device-id to Session, guarded by a lock.
// Creating a session with an existing device-id closes and replaces the
// prior one (spec.md §4.11).
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Put registers sess under deviceID, closing and replacing any existing
// session for that device-id first.
func (r *Registry) Put(deviceID string, sess *Session) {
	r.mu.Lock()
	prior := r.sessions[deviceID]
	r.sessions[deviceID] = sess
	r.mu.Unlock()

	if prior != nil {
		prior.Close()
	}
}

// Get looks up the session currently registered for deviceID.
func (r *Registry) Get(deviceID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[deviceID]
	return sess, ok
}

// Remove deletes deviceID's session and fires its cancellation token,
// per spec.md §4.11: "On transport close, the session is removed and its
// cancellation token fired". If sess is not the currently registered
// session for deviceID (a newer session has already replaced it), the
// registry entry is left untouched; sess itself is closed either way.
func (r *Registry) Remove(deviceID string, sess *Session) {
	r.mu.Lock()
	current, ok := r.sessions[deviceID]
	if ok && current == sess {
		delete(r.sessions, deviceID)
	}
	r.mu.Unlock()
	sess.Close()
}

// Len reports the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every registered session, used on server shutdown
// (spec.md §2's ambient "process lifecycle" concern: drain the registry).
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
