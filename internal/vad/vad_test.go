package vad

import "testing"

type fixedModel struct{ probs []float64 }

func (m *fixedModel) Predict(_ []byte) (float64, error) {
	p := m.probs[0]
	m.probs = m.probs[1:]
	return p, nil
}

func silenceWindow() []byte { return make([]byte, WindowBytes) }

func TestGateEmitsSpeechStart(t *testing.T) {
	m := &fixedModel{probs: []float64{0.9}}
	g := NewGate(m, 0.5, 1000)

	events, err := g.Push(silenceWindow(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Type != SpeechStart {
		t.Fatalf("expected a single SpeechStart event, got %+v", events)
	}
	if !g.IsSpeaking() {
		t.Fatalf("expected gate to report speaking")
	}
}

func TestGateContinuesWhileSpeaking(t *testing.T) {
	m := &fixedModel{probs: []float64{0.9, 0.9}}
	g := NewGate(m, 0.5, 1000)

	g.Push(silenceWindow(), 0)
	events, _ := g.Push(silenceWindow(), 20)
	if len(events) != 1 || events[0].Type != SpeechContinue {
		t.Fatalf("expected SpeechContinue, got %+v", events)
	}
}

func TestGateHoldsThroughShortSilence(t *testing.T) {
	m := &fixedModel{probs: []float64{0.9, 0.1}}
	g := NewGate(m, 0.5, 1000)

	g.Push(silenceWindow(), 0)
	events, _ := g.Push(silenceWindow(), 100) // only 100ms of silence, below the 1000ms hangover
	if len(events) != 0 {
		t.Fatalf("expected no event during hangover window, got %+v", events)
	}
	if !g.IsSpeaking() {
		t.Fatalf("expected gate to still report speaking during hangover")
	}
}

func TestGateEmitsSpeechEndAfterHangover(t *testing.T) {
	m := &fixedModel{probs: []float64{0.9, 0.1}}
	g := NewGate(m, 0.5, 1000)

	g.Push(silenceWindow(), 0)
	events, _ := g.Push(silenceWindow(), 1500) // past the 1000ms min_silence_duration_ms
	if len(events) != 1 || events[0].Type != SpeechEnd {
		t.Fatalf("expected SpeechEnd, got %+v", events)
	}
	if g.IsSpeaking() {
		t.Fatalf("expected gate to report not speaking after SpeechEnd")
	}
}

func TestGateIgnoresSilenceWhenNotSpeaking(t *testing.T) {
	m := &fixedModel{probs: []float64{0.1, 0.1}}
	g := NewGate(m, 0.5, 1000)

	g.Push(silenceWindow(), 0)
	events, _ := g.Push(silenceWindow(), 2000)
	if len(events) != 0 {
		t.Fatalf("expected no events while idle, got %+v", events)
	}
}

func TestGateMultipleWindowsPerPush(t *testing.T) {
	m := &fixedModel{probs: []float64{0.9, 0.9}}
	g := NewGate(m, 0.5, 1000)

	combined := append(silenceWindow(), silenceWindow()...)
	events, err := g.Push(combined, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events from a double-window push, got %d", len(events))
	}
	if events[0].Type != SpeechStart || events[1].Type != SpeechContinue {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
}

func TestGateResetClearsState(t *testing.T) {
	m := &fixedModel{probs: []float64{0.9}}
	g := NewGate(m, 0.5, 1000)
	g.Push(silenceWindow(), 0)
	g.Reset()
	if g.IsSpeaking() {
		t.Fatalf("expected Reset to clear speaking state")
	}
}

func TestEnergyModelLoudVsQuiet(t *testing.T) {
	m := EnergyModel{}

	quiet := make([]byte, WindowBytes)
	loud := make([]byte, WindowBytes)
	for i := 0; i+1 < len(loud); i += 2 {
		loud[i] = 0xFF
		loud[i+1] = 0x7F // max positive int16, little-endian
	}

	qp, err := m.Predict(quiet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lp, err := m.Predict(loud)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lp <= qp {
		t.Fatalf("expected loud probability (%f) > quiet probability (%f)", lp, qp)
	}
}
