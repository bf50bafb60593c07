package session

import (
	"context"
	"sync"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
	"github.com/voicebridge-ai/voicebridge-server/internal/dialogue"
	"github.com/voicebridge-ai/voicebridge-server/internal/logging"
	"github.com/voicebridge-ai/voicebridge-server/internal/transport"
	"github.com/voicebridge-ai/voicebridge-server/internal/vad"
)

// Session is spec.md §3's per-client aggregate: one per connected device,
// keyed by device-id. It owns its buffers exclusively — no cross-session
// sharing (spec.md §5).
type Session struct {
	ID        string
	SessionID string

	Machine *Machine
	mode    ListenMode
	modeMu  sync.Mutex

	// Flags (spec.md §3). ClientAbort and AsrServerReceive are read/written
	// from multiple session tasks, so they're guarded explicitly rather than
	// left as bare bools (the source's global-flag anti-pattern this
	// replaces, per spec.md §9).
	flagsMu           sync.Mutex
	clientAbort       bool
	asrServerReceive  bool
	voiceStopRequested bool
	closeAfterReply   bool

	LastSpeechMs int64

	Codec  *audio.Codec
	Gate   *vad.Gate
	Buffer UtteranceBuffer

	Engine  *dialogue.Engine
	History *dialogue.History

	ExitPhrases []string

	Transport transport.Transport

	Cancel context.CancelFunc
	ctx    context.Context

	Logger logging.Logger
}

// NewSession constructs a Session in Idle state with AsrServerReceive set
// (ready to accept audio), per spec.md §3's lifecycle: "Session created by
// C11 on accepted client connection".
func NewSession(parent context.Context, id, sessionID string, codec *audio.Codec, gate *vad.Gate, engine *dialogue.Engine, tr transport.Transport, logger logging.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Session{
		ID:               id,
		SessionID:        sessionID,
		Machine:          NewMachine(),
		mode:             Auto,
		asrServerReceive: true,
		Codec:            codec,
		Gate:             gate,
		Engine:           engine,
		Transport:        tr,
		Cancel:           cancel,
		ctx:              ctx,
		Logger:           logger,
	}
}

// Context returns the session's cancellation-bound context; provider calls
// and transport reads should all derive from it.
func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) Mode() ListenMode {
	s.modeMu.Lock()
	defer s.modeMu.Unlock()
	return s.mode
}

func (s *Session) SetMode(m ListenMode) {
	s.modeMu.Lock()
	defer s.modeMu.Unlock()
	s.mode = m
}

func (s *Session) ClientAbort() bool {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	return s.clientAbort
}

func (s *Session) SetClientAbort(v bool) {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	s.clientAbort = v
}

func (s *Session) AsrServerReceive() bool {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	return s.asrServerReceive
}

func (s *Session) SetAsrServerReceive(v bool) {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	s.asrServerReceive = v
}

func (s *Session) CloseAfterReply() bool {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	return s.closeAfterReply
}

func (s *Session) SetCloseAfterReply(v bool) {
	s.flagsMu.Lock()
	defer s.flagsMu.Unlock()
	s.closeAfterReply = v
}

// Close cancels the session's context (firing the cancellation token every
// in-flight ASR/LLM/TTS call observes) and closes its transport.
func (s *Session) Close() error {
	s.Cancel()
	if s.Transport != nil {
		return s.Transport.Close()
	}
	return nil
}
