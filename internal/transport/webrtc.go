package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
	"github.com/voicebridge-ai/voicebridge-server/internal/control"
)

// WebRTCConfig is the ICE server configuration a peer connection is built
// with (spec.md §6 webrtc.stun_servers[]/turn_servers[]).
type WebRTCConfig struct {
	STUNServers []string
	TURNServers []TURNServer
}

// TURNServer is one configured TURN relay.
type TURNServer struct {
	URLs       []string
	Username   string
	Credential string
}

// WebRTC is C9's WebRTC implementation. Audio flows on a single mono Opus
// transceiver negotiated up front (grounded on the astra-voice-service
// template's ProcessOfferWithTracks); control JSON flows over an SCTP data
// channel. Unlike that template, ICE candidates are trickled as they're
// discovered rather than awaiting GatheringCompletePromise, per spec.md
// §4.10's trickle-ICE requirement — a deliberate deviation, see
// SPEC_FULL.md.
type WebRTC struct {
	pc          *webrtc.PeerConnection
	outputTrack *webrtc.TrackLocalStaticSample
	dataChannel *webrtc.DataChannel

	codec *audio.Codec

	mu      sync.Mutex
	inbound chan Inbound
	closed  bool
}

// NewPeerConnection builds a pion PeerConnection configured for a single
// mono-Opus sendrecv transceiver plus a "control" data channel, and wraps
// it as a WebRTC transport. The caller still must SetRemoteDescription,
// CreateAnswer, and SetLocalDescription (see signaling.Handler) before the
// transport is usable.
func NewPeerConnection(cfg WebRTCConfig, codec *audio.Codec) (*WebRTC, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeOpus,
			ClockRate:   audio.SampleRate,
			Channels:    1,
			SDPFmtpLine: "stereo=0;sprop-stereo=0;ptime=20;maxplaybackrate=16000;sprop-maxcapturerate=16000",
		},
		PayloadType: 111,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, err
	}

	iceServers := make([]webrtc.ICEServer, 0, len(cfg.STUNServers)+len(cfg.TURNServers))
	for _, s := range cfg.STUNServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: []string{s}})
	}
	for _, t := range cfg.TURNServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: t.URLs, Username: t.Username, Credential: t.Credential})
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(m))
	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, err
	}

	transceiver, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio,
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionSendrecv})
	if err != nil {
		pc.Close()
		return nil, err
	}

	outputTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: audio.SampleRate, Channels: 1},
		"audio", "voicebridge")
	if err != nil {
		pc.Close()
		return nil, err
	}
	if err := transceiver.Sender().ReplaceTrack(outputTrack); err != nil {
		pc.Close()
		return nil, err
	}

	dc, err := pc.CreateDataChannel("control", nil)
	if err != nil {
		pc.Close()
		return nil, err
	}

	w := &WebRTC{
		pc:          pc,
		outputTrack: outputTrack,
		dataChannel: dc,
		codec:       codec,
		inbound:     make(chan Inbound, 64),
	}

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var cm control.Message
		if err := json.Unmarshal(msg.Data, &cm); err != nil {
			return
		}
		w.pushInbound(Inbound{Kind: InboundControl, Control: cm})
	})

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		w.readRemoteTrack(remote)
	})

	return w, nil
}

func (w *WebRTC) readRemoteTrack(remote *webrtc.TrackRemote) {
	for {
		packet, _, err := remote.ReadRTP()
		if err != nil {
			return
		}
		w.pushInbound(Inbound{Kind: InboundAudio, Audio: rtpOpusPayload(packet)})
	}
}

func rtpOpusPayload(packet *rtp.Packet) []byte {
	return packet.Payload
}

func (w *WebRTC) pushInbound(in Inbound) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}
	select {
	case w.inbound <- in:
	default:
	}
}

// PeerConnection exposes the underlying pion connection for the signalling
// handler to complete SDP negotiation and feed ICE candidates.
func (w *WebRTC) PeerConnection() *webrtc.PeerConnection { return w.pc }

func (w *WebRTC) Kind() Kind { return KindWebRTCTrack }

func (w *WebRTC) SendControl(_ context.Context, msg control.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return w.dataChannel.Send(payload)
}

func (w *WebRTC) SendAudio(_ context.Context, opusFrame []byte) error {
	return w.outputTrack.WriteSample(media.Sample{
		Data:     opusFrame,
		Duration: audio.FrameDurationMs * time.Millisecond,
	})
}

func (w *WebRTC) Recv(ctx context.Context) (Inbound, error) {
	select {
	case in, ok := <-w.inbound:
		if !ok {
			return Inbound{}, ErrTransportClosed
		}
		return in, nil
	case <-ctx.Done():
		return Inbound{}, ctx.Err()
	}
}

func (w *WebRTC) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	close(w.inbound)
	return w.pc.Close()
}
