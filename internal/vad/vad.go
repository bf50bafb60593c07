// Package vad implements C2 VAD Gate: it accumulates PCM, runs a VAD model
// per 512-sample window, and emits speech-start/continue/end events with
// hangover, per spec.md §4.2. The Silero model itself is an external
// collaborator (spec.md §1); only its narrow interface is defined here.
package vad

import "math"

// WindowSamples / WindowBytes is the fixed analysis window the gate feeds
// the model: 512 samples (1024 bytes at s16le), per spec.md §4.2.
const (
	WindowSamples = 512
	WindowBytes   = WindowSamples * 2
)

// Model is the narrow interface the VAD model (e.g. Silero) must satisfy:
// classify one 512-sample pcm16 window and return a speech probability in
// [0,1]. Implementations are external collaborators (spec.md §1).
type Model interface {
	Predict(pcm16Frame []byte) (probability float64, err error)
}

// EventType enumerates the gate's output events.
type EventType int

const (
	SpeechStart EventType = iota
	SpeechContinue
	SpeechEnd
)

// Event is one gate transition, timestamped in the caller's clock (ms).
type Event struct {
	Type        EventType
	TimestampMs int64
	Probability float64
}

// Gate is a stateful, per-session VAD accumulator. It is advisory: callers
// decide whether to honour SpeechEnd (Auto listen_mode) or ignore it
// (Manual/WakewordDetect, per spec.md §4.2).
type Gate struct {
	model     Model
	threshold float64
	minSilenceMs int64

	ring []byte

	speaking     bool
	lastSpeechMs int64
}

// NewGate builds a Gate. threshold defaults to 0.5 and minSilenceMs to 1000
// when zero, matching spec.md §4.2's documented defaults.
func NewGate(model Model, threshold float64, minSilenceMs int64) *Gate {
	if threshold <= 0 {
		threshold = 0.5
	}
	if minSilenceMs <= 0 {
		minSilenceMs = 1000
	}
	return &Gate{model: model, threshold: threshold, minSilenceMs: minSilenceMs}
}

// Push feeds arbitrary-length PCM into the ring and returns zero or more
// events produced by classifying every complete 512-sample window now
// available. nowMs is the caller's wall-clock in milliseconds.
func (g *Gate) Push(pcm []byte, nowMs int64) ([]Event, error) {
	g.ring = append(g.ring, pcm...)

	var events []Event
	for len(g.ring) >= WindowBytes {
		window := g.ring[:WindowBytes]
		g.ring = g.ring[WindowBytes:]

		prob, err := g.model.Predict(window)
		if err != nil {
			return events, err
		}

		isSpeech := prob >= g.threshold
		if isSpeech {
			if !g.speaking {
				g.speaking = true
				events = append(events, Event{Type: SpeechStart, TimestampMs: nowMs, Probability: prob})
			} else {
				events = append(events, Event{Type: SpeechContinue, TimestampMs: nowMs, Probability: prob})
			}
			g.lastSpeechMs = nowMs
			continue
		}

		// Silence.
		if g.speaking {
			if nowMs-g.lastSpeechMs >= g.minSilenceMs {
				g.speaking = false
				events = append(events, Event{Type: SpeechEnd, TimestampMs: nowMs, Probability: prob})
			}
			// Shorter silences are within-utterance pauses: no event.
		}
	}
	return events, nil
}

// IsSpeaking reports the gate's current classification.
func (g *Gate) IsSpeaking() bool { return g.speaking }

// Reset clears all accumulated state, used when a session returns to Idle
// or an utterance is force-dispatched.
func (g *Gate) Reset() {
	g.ring = nil
	g.speaking = false
	g.lastSpeechMs = 0
}

// EnergyModel is a deterministic RMS-energy stand-in for a real VAD model,
// used in tests and as a development default. Grounded on the teacher's
// pkg/orchestrator/vad.go RMSVAD, adapted to the Model interface's
// single-window Predict contract instead of owning its own hysteresis
// (hysteresis now lives in Gate, matching spec.md's single authoritative
// state machine per component).
type EnergyModel struct{}

func (EnergyModel) Predict(frame []byte) (float64, error) {
	if len(frame) < 2 {
		return 0, nil
	}
	var sum float64
	n := 0
	for i := 0; i+1 < len(frame); i += 2 {
		sample := int16(frame[i]) | int16(frame[i+1])<<8
		f := float64(sample) / 32768.0
		sum += f * f
		n++
	}
	if n == 0 {
		return 0, nil
	}
	rms := math.Sqrt(sum / float64(n))
	// Map RMS (typically tiny, <0.3 for voice) onto a [0,1]-ish probability
	// so it composes with the default 0.5 threshold family of configs.
	prob := rms * 3
	if prob > 1 {
		prob = 1
	}
	return prob, nil
}
