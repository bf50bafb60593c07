package pacer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voicebridge-ai/voicebridge-server/internal/control"
	"github.com/voicebridge-ai/voicebridge-server/internal/tts"
)

type recordingSender struct {
	mu       sync.Mutex
	controls []control.Message
	frames   int
}

func (s *recordingSender) SendControl(_ context.Context, msg control.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = append(s.controls, msg)
	return nil
}

func (s *recordingSender) SendAudio(_ context.Context, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	return nil
}

func (s *recordingSender) snapshot() ([]control.Message, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]control.Message(nil), s.controls...), s.frames
}

func makeFrames(n int) [][]byte {
	frames := make([][]byte, n)
	for i := range frames {
		frames[i] = []byte{byte(i)}
	}
	return frames
}

func TestPacerBracketsSegmentWithStartAndEnd(t *testing.T) {
	sender := &recordingSender{}
	idleCalled := make(chan struct{}, 1)
	p := New("sess-1", sender, nil, func() { idleCalled <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Enqueue(ctx, tts.Segment{Index: 0, Text: "hi", Frames: makeFrames(3), Final: true})

	select {
	case <-idleCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for onIdle after final segment")
	}

	controls, frames := sender.snapshot()
	if frames != 3 {
		t.Fatalf("expected 3 frames sent, got %d", frames)
	}
	if len(controls) != 3 {
		t.Fatalf("expected sentence_start, sentence_end, stop, got %d: %+v", len(controls), controls)
	}
	if controls[0].TTSState != control.TTSSentenceStart {
		t.Fatalf("expected first control message to be sentence_start, got %+v", controls[0])
	}
	if controls[1].TTSState != control.TTSSentenceEnd {
		t.Fatalf("expected second control message to be sentence_end, got %+v", controls[1])
	}
	if controls[2].TTSState != control.TTSStop {
		t.Fatalf("expected third control message to be stop, got %+v", controls[2])
	}
}

func TestPacerPlaysStopNotifyOnNaturalCompletion(t *testing.T) {
	sender := &recordingSender{}
	idleCalled := make(chan struct{}, 1)
	p := New("sess-1", sender, nil, func() { idleCalled <- struct{}{} })
	p.SetStopNotifyFrames(makeFrames(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Enqueue(ctx, tts.Segment{Index: 0, Text: "hi", Frames: makeFrames(3), Final: true})

	select {
	case <-idleCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for onIdle after final segment")
	}

	_, frames := sender.snapshot()
	if frames != 5 {
		t.Fatalf("expected 3 segment frames + 2 notify frames, got %d", frames)
	}
}

func TestPacerSkipsStopNotifyOnAbort(t *testing.T) {
	sender := &recordingSender{}
	idleCalled := make(chan struct{}, 1)
	p := New("sess-1", sender, nil, func() { idleCalled <- struct{}{} })
	p.SetStopNotifyFrames(makeFrames(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Enqueue(ctx, tts.Segment{Index: 0, Text: "long", Frames: makeFrames(100), Final: true})
	time.Sleep(30 * time.Millisecond)
	p.Abort()

	select {
	case <-idleCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for onIdle after abort")
	}

	controlsBefore, framesAtAbort := sender.snapshot()
	// Give any (incorrect) notify playback time to land before asserting it didn't.
	time.Sleep(100 * time.Millisecond)
	controlsAfter, framesAfter := sender.snapshot()
	if framesAfter != framesAtAbort {
		t.Fatalf("expected no additional frames sent after abort (notify must not play on barge-in), before=%d after=%d", framesAtAbort, framesAfter)
	}
	if len(controlsAfter) != len(controlsBefore) {
		t.Fatalf("expected no additional control messages after abort settled")
	}
}

func TestPacerAbortStopsMidSegment(t *testing.T) {
	sender := &recordingSender{}
	idleCalled := make(chan struct{}, 1)
	p := New("sess-1", sender, nil, func() { idleCalled <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	// Many frames so the pacing loop is still running when Abort fires.
	p.Enqueue(ctx, tts.Segment{Index: 0, Text: "long", Frames: makeFrames(100), Final: true})
	time.Sleep(30 * time.Millisecond)
	p.Abort()

	select {
	case <-idleCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for onIdle after abort")
	}

	controls, frames := sender.snapshot()
	if frames >= 100 {
		t.Fatalf("expected abort to cut play-out short, sent %d of 100 frames", frames)
	}
	foundStop := false
	for _, c := range controls {
		if c.TTSState == control.TTSStop {
			foundStop = true
		}
	}
	if !foundStop {
		t.Fatalf("expected a tts stop control message after abort, got %+v", controls)
	}
}
