package timeline

import (
	"fmt"
	"math"
	"strings"

	"storyreel/internal/services"
)

const contiguityTolerance = 1e-6

// Validate checks the timeline invariants: the first segment starts at zero,
// every start time equals the running sum of preceding durations, and no
// duration is below the minimum floor.
func Validate(segments []Segment) error {
	expected := 0.0
	for i, seg := range segments {
		if seg.Duration < MinSegmentDuration-contiguityTolerance {
			return services.Wrap(services.ErrValidation, "timeline", "validate",
				fmt.Sprintf("segment %s duration %.3fs below minimum %.1fs", seg.ID, seg.Duration, MinSegmentDuration), nil)
		}
		if math.Abs(seg.StartTime-expected) > contiguityTolerance {
			return services.Wrap(services.ErrValidation, "timeline", "validate",
				fmt.Sprintf("segment %s at index %d starts at %.3fs, expected %.3fs", seg.ID, i, seg.StartTime, expected), nil)
		}
		expected += seg.Duration
	}
	return nil
}

// Restamp rewrites every start time as the running sum of preceding
// durations, restoring the contiguity invariant after an edit.
func Restamp(segments []Segment) {
	start := 0.0
	for i := range segments {
		segments[i].StartTime = start
		start += segments[i].Duration
	}
}

// TotalDuration returns the summed duration of the list.
func TotalDuration(segments []Segment) float64 {
	total := 0.0
	for _, seg := range segments {
		total += seg.Duration
	}
	return total
}

// Split divides the segment with the given id at an absolute timeline
// position. The two pieces take the parent's id suffixed _a/_b, share its
// source text split at the word midpoint, and are both reset to pending so
// previously generated media is invalidated. The input list is never mutated:
// on success a new list with restamped start times is returned; a split that
// would leave either piece under the minimum duration is rejected with a
// validation error and no effect.
func Split(segments []Segment, segmentID string, splitTime float64) ([]Segment, error) {
	idx := indexOf(segments, segmentID)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "timeline", "split",
			fmt.Sprintf("segment %s not found", segmentID), nil)
	}
	seg := segments[idx]

	left := splitTime - seg.StartTime
	right := seg.Duration - left
	if left < MinSegmentDuration || right < MinSegmentDuration {
		return nil, services.Wrap(services.ErrValidation, "timeline", "split",
			fmt.Sprintf("split at %.3fs leaves %.3fs/%.3fs, both pieces must be at least %.1fs", splitTime, left, right, MinSegmentDuration), nil)
	}

	firstText, secondText := splitText(seg.SourceText)

	first := seg.Clone()
	first.ID = seg.ID + "_a"
	first.Duration = left
	first.SourceText = firstText
	first.Status = SegmentPending

	second := seg.Clone()
	second.ID = seg.ID + "_b"
	second.Duration = right
	second.SourceText = secondText
	second.Status = SegmentPending

	out := make([]Segment, 0, len(segments)+1)
	out = append(out, CloneAll(segments[:idx])...)
	out = append(out, first, second)
	out = append(out, CloneAll(segments[idx+1:])...)
	Restamp(out)
	return out, nil
}

// Merge combines two adjacent segments. Not supported yet; callers receive a
// clearly signalled validation result instead of a silent no-op.
func Merge(segments []Segment, firstID, secondID string) ([]Segment, error) {
	return nil, services.Wrap(services.ErrUnsupported, "timeline", "merge",
		fmt.Sprintf("merging %s and %s is not supported", firstID, secondID), nil)
}

// Duplicate inserts a copy of a segment after itself. Not supported yet.
func Duplicate(segments []Segment, segmentID string) ([]Segment, error) {
	return nil, services.Wrap(services.ErrUnsupported, "timeline", "duplicate",
		fmt.Sprintf("duplicating %s is not supported", segmentID), nil)
}

// Remove deletes a segment from the timeline. Not supported yet.
func Remove(segments []Segment, segmentID string) ([]Segment, error) {
	return nil, services.Wrap(services.ErrUnsupported, "timeline", "remove",
		fmt.Sprintf("removing %s is not supported", segmentID), nil)
}

// ReplaceByID swaps one segment in place, preserving its timing fields so a
// scoped regeneration never perturbs the rest of the timeline. The returned
// list is a copy; the input is untouched.
func ReplaceByID(segments []Segment, replacement Segment) ([]Segment, error) {
	idx := indexOf(segments, replacement.ID)
	if idx < 0 {
		return nil, services.Wrap(services.ErrNotFound, "timeline", "replace",
			fmt.Sprintf("segment %s not found", replacement.ID), nil)
	}
	out := CloneAll(segments)
	replacement.StartTime = out[idx].StartTime
	replacement.Duration = out[idx].Duration
	out[idx] = replacement.Clone()
	return out, nil
}

func indexOf(segments []Segment, id string) int {
	for i, seg := range segments {
		if seg.ID == id {
			return i
		}
	}
	return -1
}

// splitText divides narration at the word-count midpoint. This is a known
// approximation: the midpoint word is not time-aligned with the split
// position. Timing-aligned splitting would need a per-word timing map.
func splitText(text string) (string, string) {
	words := strings.Fields(text)
	if len(words) < 2 {
		return strings.TrimSpace(text), ""
	}
	mid := len(words) / 2
	return strings.Join(words[:mid], " "), strings.Join(words[mid:], " ")
}
