package transport

import (
	"testing"

	"github.com/pion/rtp"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
)

func TestRTPOpusPayloadExtractsPacketPayload(t *testing.T) {
	packet := &rtp.Packet{Payload: []byte{9, 8, 7, 6}}
	got := rtpOpusPayload(packet)
	if len(got) != 4 || got[0] != 9 || got[3] != 6 {
		t.Fatalf("expected payload to pass through unchanged, got %v", got)
	}
}

func TestNewPeerConnectionBuildsAudioTransceiverAndDataChannel(t *testing.T) {
	codec, err := audio.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	w, err := NewPeerConnection(WebRTCConfig{STUNServers: []string{"stun:stun.l.google.com:19302"}}, codec)
	if err != nil {
		t.Fatalf("NewPeerConnection: %v", err)
	}
	defer w.Close()

	if w.Kind() != KindWebRTCTrack {
		t.Fatalf("expected KindWebRTCTrack, got %v", w.Kind())
	}
	if w.PeerConnection() == nil {
		t.Fatalf("expected a non-nil underlying peer connection")
	}
	if w.outputTrack == nil {
		t.Fatalf("expected an output track to be wired")
	}
	if w.dataChannel == nil {
		t.Fatalf("expected a control data channel to be wired")
	}
}

func TestWebRTCCloseIsIdempotent(t *testing.T) {
	codec, err := audio.NewCodec()
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	w, err := NewPeerConnection(WebRTCConfig{}, codec)
	if err != nil {
		t.Fatalf("NewPeerConnection: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
}
