package timeline

// SegmentStatus represents the generation lifecycle of a segment.
type SegmentStatus string

const (
	SegmentPending    SegmentStatus = "pending"
	SegmentGenerating SegmentStatus = "generating"
	SegmentCompleted  SegmentStatus = "completed"
	SegmentFailed     SegmentStatus = "failed"
	SegmentValidated  SegmentStatus = "validated"
)

// MinSegmentDuration is the floor below which no segment may shrink, in seconds.
const MinSegmentDuration = 0.5

// Segment is one time-coded shot of the generated script. Segments are
// ordered by index; start times are always the running sum of preceding
// durations, with the first segment starting at zero.
type Segment struct {
	ID             string        `json:"id"`
	SourceText     string        `json:"sourceText"`
	Prompt         string        `json:"prompt"`
	Duration       float64       `json:"duration"`
	StartTime      float64       `json:"startTime"`
	Status         SegmentStatus `json:"status"`
	AssetIDs       []string      `json:"assetIds,omitempty"`
	ContinuityRef  string        `json:"continuityRef,omitempty"`
	ContinuityType string        `json:"continuityType,omitempty"`
	ContextNote    string        `json:"contextNote,omitempty"`
}

// Clone copies a segment, including its asset id list.
func (s Segment) Clone() Segment {
	cp := s
	if len(s.AssetIDs) > 0 {
		cp.AssetIDs = append([]string(nil), s.AssetIDs...)
	}
	return cp
}

// CloneAll copies a segment list.
func CloneAll(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, seg.Clone())
	}
	return out
}
