package asr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
)

type fakeProvider struct {
	text  string
	err   error
	delay time.Duration
}

func (f *fakeProvider) Transcribe(ctx context.Context, _ []byte) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}
func (f *fakeProvider) Name() string { return "fake" }

func pcmChunk() audio.Chunk {
	return audio.Chunk{Data: make([]byte, audio.FrameBytes), Format: audio.FormatPCM16, SampleRate: audio.SampleRate}
}

func TestDispatchReturnsTranscript(t *testing.T) {
	d := NewDispatcher(&fakeProvider{text: "hello there"}, 0, 0, nil)
	res, err := d.Dispatch(context.Background(), nil, []audio.Chunk{pcmChunk()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello there" {
		t.Fatalf("expected transcript, got %q", res.Text)
	}
}

func TestDispatchEmptyChunksReturnsEmptyResult(t *testing.T) {
	d := NewDispatcher(&fakeProvider{text: "should not be reached"}, 0, 0, nil)
	res, err := d.Dispatch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "" {
		t.Fatalf("expected empty transcript for empty chunk list, got %q", res.Text)
	}
}

func TestDispatchProviderErrorYieldsEmptyNotError(t *testing.T) {
	d := NewDispatcher(&fakeProvider{err: errors.New("boom")}, 0, 0, nil)
	res, err := d.Dispatch(context.Background(), nil, []audio.Chunk{pcmChunk()})
	if err != nil {
		t.Fatalf("provider failure must surface as empty transcript, not error: %v", err)
	}
	if res.Text != "" {
		t.Fatalf("expected empty transcript on provider error, got %q", res.Text)
	}
}

func TestDispatchTimeout(t *testing.T) {
	d := NewDispatcher(&fakeProvider{text: "too slow", delay: 50 * time.Millisecond}, 5*time.Millisecond, 0, nil)
	res, err := d.Dispatch(context.Background(), nil, []audio.Chunk{pcmChunk()})
	if err != nil {
		t.Fatalf("timeout must not surface as error: %v", err)
	}
	if res.Text != "" {
		t.Fatalf("expected empty transcript on timeout, got %q", res.Text)
	}
}

func TestDispatchRejectsConcurrentInFlight(t *testing.T) {
	d := NewDispatcher(&fakeProvider{text: "ok", delay: 30 * time.Millisecond}, 0, 0, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, err := d.Dispatch(context.Background(), nil, []audio.Chunk{pcmChunk()})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var inFlightCount int
	for err := range errs {
		if errors.Is(err, ErrDispatchInFlight) {
			inFlightCount++
		}
	}
	if inFlightCount != 1 {
		t.Fatalf("expected exactly one dispatch to be rejected as in-flight, got %d", inFlightCount)
	}
}
