package session

import "testing"

func TestMachineLegalTransitions(t *testing.T) {
	m := NewMachine()
	if m.Current() != Idle {
		t.Fatalf("expected initial state Idle, got %s", m.Current())
	}
	if err := m.To(Listening); err != nil {
		t.Fatalf("Idle->Listening should be legal: %v", err)
	}
	if err := m.To(Thinking); err != nil {
		t.Fatalf("Listening->Thinking should be legal: %v", err)
	}
	if err := m.To(Speaking); err != nil {
		t.Fatalf("Thinking->Speaking should be legal: %v", err)
	}
	if err := m.To(Idle); err != nil {
		t.Fatalf("Speaking->Idle should be legal: %v", err)
	}
}

func TestMachineIllegalTransition(t *testing.T) {
	m := NewMachine()
	err := m.To(Speaking)
	if err == nil {
		t.Fatalf("expected Idle->Speaking to be illegal")
	}
	var illegal *ErrIllegalTransition
	if !asIllegal(err, &illegal) {
		t.Fatalf("expected ErrIllegalTransition, got %T", err)
	}
}

func asIllegal(err error, target **ErrIllegalTransition) bool {
	ie, ok := err.(*ErrIllegalTransition)
	if ok {
		*target = ie
	}
	return ok
}

func TestMachineForceIdleAlwaysSucceeds(t *testing.T) {
	m := NewMachine()
	m.To(Listening)
	m.To(Thinking)
	m.ForceIdle()
	if m.Current() != Idle {
		t.Fatalf("expected ForceIdle to reset to Idle, got %s", m.Current())
	}
}

func TestMachineToIdleAlwaysLegal(t *testing.T) {
	m := NewMachine()
	m.To(Listening)
	if err := m.To(Idle); err != nil {
		t.Fatalf("Idle should always be reachable, got %v", err)
	}
}
