package asr

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
)

// DefaultTimeout is the ASR dispatch timeout (spec.md §4.4: "default 10s").
const DefaultTimeout = 10 * time.Second

// ErrDispatchInFlight is returned when a second dispatch is attempted while
// one is already running for the session (spec.md §3's at-most-one-dispatch
// invariant, enforced here instead of via the source's asr_server_receive
// boolean flag).
var ErrDispatchInFlight = errors.New("asr dispatch already in flight")

// Result is what Dispatch returns: the transcript (possibly empty) plus
// how long the dispatch took.
type Result struct {
	Text    string
	Elapsed time.Duration
}

// Dispatcher is C4: it serialises a session's buffered utterance chunks,
// calls the ASR provider under a timeout, and enforces at-most-one
// in-flight dispatch per session.
type Dispatcher struct {
	provider   Provider
	timeout    time.Duration
	logger     logging.Logger
	sampleRate int

	inFlight atomic.Bool
}

// NewDispatcher builds a Dispatcher. timeout defaults to DefaultTimeout when
// <= 0.
func NewDispatcher(provider Provider, timeout time.Duration, sampleRate int, logger logging.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if sampleRate <= 0 {
		sampleRate = audio.SampleRate
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Dispatcher{provider: provider, timeout: timeout, sampleRate: sampleRate, logger: logger}
}

// Dispatch serialises chunks into a WAV buffer of 16kHz mono PCM and calls
// the provider. On empty transcript or timeout it returns an empty Result
// and no error — the caller (session state machine) returns to Idle
// without invoking the LLM, per spec.md §4.4.
func (d *Dispatcher) Dispatch(ctx context.Context, codec *audio.Codec, chunks []audio.Chunk) (Result, error) {
	if !d.inFlight.CompareAndSwap(false, true) {
		return Result{}, ErrDispatchInFlight
	}
	defer d.inFlight.Store(false)

	start := time.Now()

	var pcm []byte
	for _, c := range chunks {
		decoded, err := audio.DecodeToPCM(codec, c)
		if err != nil {
			d.logger.Warn("dropping undecodable chunk during asr dispatch", "error", err)
			continue
		}
		pcm = append(pcm, decoded...)
	}
	if len(pcm) == 0 {
		return Result{Elapsed: time.Since(start)}, nil
	}

	wav := audio.WAVBuffer(pcm, d.sampleRate)

	cctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	text, err := d.provider.Transcribe(cctx, wav)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			d.logger.Warn("asr dispatch timed out", "provider", d.provider.Name(), "timeout", d.timeout)
			return Result{Elapsed: elapsed}, nil
		}
		d.logger.Error("asr dispatch failed", "provider", d.provider.Name(), "error", err)
		return Result{Elapsed: elapsed}, nil
	}

	if strings.TrimSpace(text) == "" {
		return Result{Elapsed: elapsed}, nil
	}
	return Result{Text: text, Elapsed: elapsed}, nil
}

// InFlight reports whether a dispatch is currently running.
func (d *Dispatcher) InFlight() bool { return d.inFlight.Load() }
