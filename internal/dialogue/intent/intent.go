// Package intent is the static plugin registry spec.md §4.5/§9 calls for:
// a fixed list of hooks consulted before the LLM, replacing the source's
// dynamic string-keyed plugin loading.
package intent

import (
	"fmt"
	"strings"
)

// Result is what a Hook returns when it claims a transcript.
type Result struct {
	// Reply is spoken back to the user in place of an LLM call.
	Reply string
	// NewSystemPrompt, when non-empty, replaces the session's system prompt
	// (role switching).
	NewSystemPrompt string
	// NewVoiceID, when non-empty, replaces the session's TTS voice.
	NewVoiceID string
}

// Hook inspects one user transcript and, if it claims it, returns a Result.
// Claimed==false means "not my intent, fall through to the LLM".
type Hook interface {
	Try(transcript string) (result Result, claimed bool)
}

// Registry is a static, construction-time list of hooks, consulted in
// order — the "static registry populated at start" replacement for
// dynamic plugin loading (spec.md §9).
type Registry struct {
	hooks []Hook
}

// NewRegistry builds a Registry from a fixed hook list.
func NewRegistry(hooks ...Hook) *Registry { return &Registry{hooks: hooks} }

// Dispatch runs every hook in order and returns the first claim.
func (r *Registry) Dispatch(transcript string) (Result, bool) {
	for _, h := range r.hooks {
		if res, ok := h.Try(transcript); ok {
			return res, true
		}
	}
	return Result{}, false
}

// ExitPhraseHook matches a transcript (after trimming) against a configured
// set of exit phrases (spec.md §4.5 step 1, e.g. "再见"). A match's Result
// carries a goodbye reply; the caller is responsible for setting
// close_after_reply, since that's session-machine state this package
// doesn't own.
type ExitPhraseHook struct {
	Phrases []string
	Reply   string
}

func (h ExitPhraseHook) Try(transcript string) (Result, bool) {
	trimmed := strings.TrimSpace(transcript)
	for _, phrase := range h.Phrases {
		if trimmed == phrase {
			return Result{Reply: h.Reply}, true
		}
	}
	return Result{}, false
}

// Role is a persona the ChangeRoleHook can switch to; it mirrors the role
// CRUD sidecar's role object (spec.md §6).
type Role struct {
	Name   string
	Prompt string
	Voice  string
}

// RoleLookup resolves a role by its display name. StaticRoles implements it
// directly from a fixed table (tests, or a deployment with no sidecar); the
// role CRUD sidecar's HTTP client (internal/roleapi) implements it against
// the live store by listing GET /api/roles and matching the name
// case-insensitively.
type RoleLookup interface {
	Lookup(name string) (Role, bool)
}

// StaticRoles is a fixed, in-memory RoleLookup.
type StaticRoles map[string]Role

func (m StaticRoles) Lookup(name string) (Role, bool) {
	r, ok := m[name]
	return r, ok
}

// ChangeRoleHook matches transcripts of the form "<trigger> <role name>"
// against a RoleLookup, swapping system_prompt and voice_id (spec.md §8
// property 8: role switch updates both before the acknowledgement is
// synthesised).
type ChangeRoleHook struct {
	Trigger string
	Roles   RoleLookup
	// AckFormat is a text/template-free format string with one %s for the
	// role's display name.
	AckFormat string
}

func (h ChangeRoleHook) Try(transcript string) (Result, bool) {
	trimmed := strings.TrimSpace(transcript)
	if !strings.HasPrefix(trimmed, h.Trigger) {
		return Result{}, false
	}
	name := strings.TrimSpace(strings.TrimPrefix(trimmed, h.Trigger))
	if h.Roles == nil {
		return Result{}, false
	}
	role, ok := h.Roles.Lookup(name)
	if !ok {
		return Result{}, false
	}
	ack := h.AckFormat
	if ack == "" {
		ack = "Switched to %s."
	}
	return Result{
		Reply:           fmt.Sprintf(ack, role.Name),
		NewSystemPrompt: role.Prompt,
		NewVoiceID:      role.Voice,
	}, true
}
