package audio

// Resample converts s16le PCM samples from srcRate to SampleRate (16kHz)
// using linear interpolation. No third-party PCM resampler in the example
// pack is usable standalone (the closest, rapidaai's internal audio
// resampler, is wired to that repo's own gRPC/protobuf stream types), so
// this is a deliberate stdlib implementation — see DESIGN.md.
func Resample(pcm []byte, srcRate int) []byte {
	if srcRate == SampleRate || len(pcm) == 0 {
		return pcm
	}
	src := bytesToInt16s(pcm)
	ratio := float64(srcRate) / float64(SampleRate)
	outLen := int(float64(len(src)) / ratio)
	if outLen <= 0 {
		return nil
	}
	out := make([]int16, outLen)
	for i := range out {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		if idx+1 < len(src) {
			out[i] = int16(float64(src[idx])*(1-frac) + float64(src[idx+1])*frac)
		} else if idx < len(src) {
			out[i] = src[idx]
		}
	}
	return int16sToBytes(out)
}

// Downmix averages an interleaved multi-channel s16le buffer down to mono.
func Downmix(pcm []byte, channels int) []byte {
	if channels <= 1 || len(pcm) == 0 {
		return pcm
	}
	src := bytesToInt16s(pcm)
	frames := len(src) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			sum += int32(src[i*channels+ch])
		}
		out[i] = int16(sum / int32(channels))
	}
	return int16sToBytes(out)
}

// DecodeToPCM converts an AudioChunk of arbitrary format/rate/layout into
// canonical 16kHz mono s16le PCM (spec.md §4.1 decode_to_pcm). Opus chunks
// are decoded with the session's persistent Codec; PCM chunks at another
// rate are resampled (mono assumed — multi-channel PCM chunks must be
// downmixed by the caller before constructing the Chunk, since channel
// count isn't carried on the wire format in spec.md §3).
func DecodeToPCM(codec *Codec, chunk Chunk) ([]byte, error) {
	switch chunk.Format {
	case FormatOpus, FormatOpusConverted:
		pcm, err := codec.DecodeFrame(chunk.Data)
		if err != nil {
			return nil, err
		}
		if chunk.SampleRate != 0 && chunk.SampleRate != SampleRate {
			pcm = Resample(pcm, chunk.SampleRate)
		}
		return pcm, nil
	case FormatPCM16:
		if chunk.SampleRate != 0 && chunk.SampleRate != SampleRate {
			return Resample(chunk.Data, chunk.SampleRate), nil
		}
		return chunk.Data, nil
	default:
		return nil, &DecodeError{Err: errUnknownFormat(chunk.Format)}
	}
}

type errUnknownFormat Format

func (e errUnknownFormat) Error() string { return "unknown audio chunk format: " + string(e) }
