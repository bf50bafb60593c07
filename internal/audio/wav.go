package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// WAVBuffer packages raw s16le mono PCM into an in-memory WAV file, used
// when handing an utterance to an ASR provider that expects a WAV upload
// rather than raw PCM. Adapted from the teacher's pkg/audio/wav.go.
func WAVBuffer(pcm []byte, sampleRate int) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}

// ReadWAVFile parses a RIFF/WAVE asset's PCM samples off disk, used to load
// fixed notification sounds (spec.md §6's stop_tts_notify_voice) rather than
// synthesising them. Only canonical 16-bit PCM (fmt tag 1) is supported,
// matching the format WAVBuffer itself produces.
func ReadWAVFile(path string) (pcm []byte, sampleRate, channels int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("audio: read wav file: %w", err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("audio: %s is not a RIFF/WAVE file", path)
	}

	var bitsPerSample uint16
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body+chunkSize > len(data) {
			break
		}
		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, 0, fmt.Errorf("audio: %s has a truncated fmt chunk", path)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			pcm = data[body : body+chunkSize]
		}
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}

	if pcm == nil || sampleRate == 0 || channels == 0 {
		return nil, 0, 0, fmt.Errorf("audio: %s is missing a fmt or data chunk", path)
	}
	if bitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("audio: %s must be 16-bit PCM, got %d-bit", path, bitsPerSample)
	}
	return pcm, sampleRate, channels, nil
}

// LoadNotifyFrames reads a WAV asset and Opus-encodes it at the core's
// canonical 16kHz mono rate, for playback ahead of "tts stop" when
// enable_stop_tts_notify is set (spec.md §6, grounded on the original's
// send_tts_message/audio_to_opus_data). The returned frames are immutable
// and safe to share across sessions.
func LoadNotifyFrames(path string) ([][]byte, error) {
	pcm, sampleRate, channels, err := ReadWAVFile(path)
	if err != nil {
		return nil, err
	}
	pcm = Downmix(pcm, channels)
	pcm = Resample(pcm, sampleRate)

	codec, err := NewCodec()
	if err != nil {
		return nil, fmt.Errorf("audio: build codec for notify asset: %w", err)
	}
	frames, _, err := EncodeFromPCM(codec, pcm)
	if err != nil {
		return nil, fmt.Errorf("audio: encode notify asset %s: %w", path, err)
	}
	return frames, nil
}
