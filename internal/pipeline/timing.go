package pipeline

import (
	"strings"

	"storyreel/internal/document"
	"storyreel/internal/timeline"
)

// buildTimingMap distributes the source duration over the transcript's
// sentences, proportional to word count. Fragments are contiguous: every
// start time is the running sum of preceding durations.
func buildTimingMap(transcript string, totalDuration float64) []document.TimingFragment {
	sentences := splitSentences(transcript)
	if len(sentences) == 0 || totalDuration <= 0 {
		return nil
	}

	counts := make([]int, len(sentences))
	total := 0
	for i, s := range sentences {
		counts[i] = len(strings.Fields(s))
		total += counts[i]
	}
	if total == 0 {
		return nil
	}

	fragments := make([]document.TimingFragment, 0, len(sentences))
	start := 0.0
	for i, s := range sentences {
		dur := totalDuration * float64(counts[i]) / float64(total)
		if dur < timeline.MinSegmentDuration {
			dur = timeline.MinSegmentDuration
		}
		fragments = append(fragments, document.TimingFragment{
			Index:     i,
			Text:      s,
			StartTime: start,
			Duration:  dur,
		})
		start += dur
	}

	// Rounding and the duration floor can drift the total; rescale the last
	// fragment so the map ends exactly at the source duration when possible.
	last := len(fragments) - 1
	excess := (fragments[last].StartTime + fragments[last].Duration) - totalDuration
	if excess > 0 && fragments[last].Duration-excess >= timeline.MinSegmentDuration {
		fragments[last].Duration -= excess
	}
	return fragments
}

// splitSentences breaks the transcript on sentence-ending punctuation,
// keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
