package dialogue

import (
	"strings"
	"unicode/utf8"
)

// maxSegmentRunes is the length heuristic half of the "punctuation + length
// heuristic" sentence splitter (spec.md §4.5 step 4): a run without
// punctuation this long is flushed anyway so TTS never waits on one giant
// segment.
const maxSegmentRunes = 80

var sentenceBoundaries = []rune{'。', '.', '！', '!', '？', '?', '；', ';', '\n'}

func isBoundary(r rune) bool {
	for _, b := range sentenceBoundaries {
		if r == b {
			return true
		}
	}
	return false
}

// Segmenter incrementally splits a streamed LLM reply into sentence-sized
// segments, so TTS can begin before generation finishes (spec.md §4.5 step
// 4). Feed it text as it arrives; it returns any newly-completed segments.
type Segmenter struct {
	pending strings.Builder
}

// Push appends streamed text and returns zero or more newly-completed
// segments.
func (s *Segmenter) Push(chunk string) []string {
	var segments []string
	for _, r := range chunk {
		s.pending.WriteRune(r)
		if isBoundary(r) || utf8.RuneCountInString(s.pending.String()) >= maxSegmentRunes {
			if seg := strings.TrimSpace(s.pending.String()); seg != "" {
				segments = append(segments, seg)
			}
			s.pending.Reset()
		}
	}
	return segments
}

// Flush returns any trailing partial segment once the stream has ended.
func (s *Segmenter) Flush() string {
	seg := strings.TrimSpace(s.pending.String())
	s.pending.Reset()
	return seg
}
