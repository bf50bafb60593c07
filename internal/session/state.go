package session

import (
	"fmt"
	"sync"
)

// State is C8's explicit session state enum (spec.md §4.8). It replaces the
// source's ad-hoc boolean flags (have_voice/voice_stop/...) with one
// authoritative machine that every component gates on — the redesign
// spec.md §9 calls for.
type State int

const (
	Idle State = iota
	Listening
	Thinking
	Speaking
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Thinking:
		return "thinking"
	case Speaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// ListenMode mirrors control.ListenMode for the session's own bookkeeping,
// kept separate so this package doesn't import control for a 3-value enum.
type ListenMode int

const (
	Auto ListenMode = iota
	Manual
	WakewordDetect
)

// transitions enumerates every legal (from, to) pair. An attempted
// transition outside this table is IllegalTransition (spec.md §7): a bug,
// not a recoverable condition. Machine.To returns it and leaves the state
// unchanged; Loop's call sites discard that error, so they neither log it
// nor reset to Idle.
var transitions = map[State]map[State]bool{
	Idle:      {Listening: true},
	Listening: {Thinking: true, Idle: true},
	Thinking:  {Speaking: true, Idle: true},
	Speaking:  {Idle: true},
}

// ErrIllegalTransition is returned by Machine.To for any state pair not in
// the transitions table.
type ErrIllegalTransition struct {
	From, To State
}

func (e *ErrIllegalTransition) Error() string {
	return fmt.Sprintf("illegal session state transition: %s -> %s", e.From, e.To)
}

// Machine is a small, lock-guarded state machine. It is the single source
// of truth for a session's lifecycle phase; components read it instead of
// coordinating with each other directly.
type Machine struct {
	mu    sync.Mutex
	state State
}

// NewMachine starts a Machine in Idle.
func NewMachine() *Machine { return &Machine{state: Idle} }

// Current returns the machine's current state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// To attempts a transition, returning ErrIllegalTransition if the pair is
// not in the transitions table. Any state may force-reset to Idle: Idle is
// always reachable, matching spec.md §4.8's "Any state -> terminal on
// transport close" and the error taxonomy's "reset session to Idle" rule.
func (m *Machine) To(target State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == target {
		return nil
	}
	if target == Idle || transitions[m.state][target] {
		m.state = target
		return nil
	}
	return &ErrIllegalTransition{From: m.state, To: target}
}

// ForceIdle resets the machine to Idle unconditionally, used on
// IllegalTransition recovery and on transport close.
func (m *Machine) ForceIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Idle
}
