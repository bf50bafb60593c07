package audio

// Framer splits arbitrary-length 16kHz mono s16le PCM into exact 20ms/640
// byte windows, zero-padding the final short window (spec.md §4.1).
type Framer struct {
	carry []byte
}

// Push appends pcm and returns every complete 20ms window currently
// available, retaining any leftover bytes for the next call.
func (f *Framer) Push(pcm []byte) [][]byte {
	f.carry = append(f.carry, pcm...)
	var windows [][]byte
	for len(f.carry) >= FrameBytes {
		windows = append(windows, f.carry[:FrameBytes:FrameBytes])
		f.carry = f.carry[FrameBytes:]
	}
	return windows
}

// Flush returns the final, zero-padded partial window if any bytes remain,
// and resets the framer.
func (f *Framer) Flush() []byte {
	if len(f.carry) == 0 {
		return nil
	}
	last := make([]byte, FrameBytes)
	copy(last, f.carry)
	f.carry = nil
	return last
}

// EncodeFromPCM converts a full 16kHz mono s16le PCM buffer into Opus
// frames and returns their total duration in seconds, implementing
// spec.md §4.1's encode_from_file_or_pcm for the raw-PCM source case.
func EncodeFromPCM(codec *Codec, pcm []byte) (frames [][]byte, durationSec float64, err error) {
	var f Framer
	for _, w := range f.Push(pcm) {
		packet, encErr := codec.EncodeFrame(w)
		if encErr != nil {
			return nil, 0, encErr
		}
		frames = append(frames, packet)
	}
	if tail := f.Flush(); tail != nil {
		packet, encErr := codec.EncodeFrame(tail)
		if encErr != nil {
			return nil, 0, encErr
		}
		frames = append(frames, packet)
	}
	durationSec = float64(len(frames)) * FrameDurationMs / 1000.0
	return frames, durationSec, nil
}
