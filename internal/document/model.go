package document

import (
	"encoding/json"
	"time"

	"storyreel/internal/continuity"
	"storyreel/internal/timeline"
)

// Field names inside the canonical document payload.
const (
	FieldStoryID       = "storyId"
	FieldTitle         = "title"
	FieldSourcePath    = "sourcePath"
	FieldTranscription = "transcription"
	FieldResearch      = "research"
	FieldAudioAnalysis = "audioAnalysis"
	FieldTimingMap     = "timingMap"
	FieldAssets        = "assets"
	FieldSegments      = "segments"
	FieldContextBrief  = "contextBrief"
	FieldNotes         = "notes"
	FieldCreatedAt     = "createdAt"
	FieldUpdatedAt     = "updatedAt"
)

// syncWhitelist lists the fields a SyncUpdate call may alter. Anything else a
// stage passes is dropped so incidental local state never leaks into the
// canonical record; fields already stored but outside the partial update are
// preserved verbatim.
var syncWhitelist = map[string]struct{}{
	FieldTranscription: {},
	FieldResearch:      {},
	FieldAudioAnalysis: {},
	FieldTimingMap:     {},
	FieldAssets:        {},
	FieldSegments:      {},
	FieldContextBrief:  {},
	FieldNotes:         {},
}

// TimingFragment is one time-coded piece of the timing map.
type TimingFragment struct {
	Index     int     `json:"index"`
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
}

// AssetKind categorizes an extracted asset.
type AssetKind string

const (
	AssetCharacter AssetKind = "character"
	AssetLocation  AssetKind = "location"
	AssetProp      AssetKind = "prop"
)

// Asset is a story-scoped extracted entity referenced by segments.
type Asset struct {
	ID          string                       `json:"id"`
	Name        string                       `json:"name"`
	Kind        AssetKind                    `json:"kind"`
	Description string                       `json:"description,omitempty"`
	ImagePath   string                       `json:"imagePath,omitempty"`
	Profile     *continuity.CharacterProfile `json:"profile,omitempty"`
}

// Document is the canonical per-story record. The payload is kept as a raw
// map so fields this build does not know about survive read-merge-write
// cycles; typed accessors decode on demand.
type Document struct {
	StoryID string
	payload map[string]any
}

func newDocument(storyID string, payload map[string]any) *Document {
	if payload == nil {
		payload = map[string]any{}
	}
	return &Document{StoryID: storyID, payload: payload}
}

// Raw returns a copy of the full payload.
func (d *Document) Raw() map[string]any {
	out := make(map[string]any, len(d.payload))
	for k, v := range d.payload {
		out[k] = v
	}
	return out
}

// MarshalJSON serializes the full payload.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.payload)
}

func (d *Document) stringField(key string) string {
	if v, ok := d.payload[key].(string); ok {
		return v
	}
	return ""
}

// Title returns the editor-facing story title.
func (d *Document) Title() string { return d.stringField(FieldTitle) }

// SourcePath returns the originating audio/text path.
func (d *Document) SourcePath() string { return d.stringField(FieldSourcePath) }

// Transcription returns the accumulated transcript text.
func (d *Document) Transcription() string { return d.stringField(FieldTranscription) }

// Research returns the research stage output.
func (d *Document) Research() string { return d.stringField(FieldResearch) }

// ContextBrief returns the context assembly output.
func (d *Document) ContextBrief() string { return d.stringField(FieldContextBrief) }

// Notes returns editor-authored notes.
func (d *Document) Notes() string { return d.stringField(FieldNotes) }

// UpdatedAt returns the last modification timestamp, zero when unset.
func (d *Document) UpdatedAt() time.Time {
	if v, ok := d.payload[FieldUpdatedAt].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// TimingMap decodes the ordered timing fragments.
func (d *Document) TimingMap() []TimingFragment {
	return decodeField[[]TimingFragment](d.payload[FieldTimingMap])
}

// Assets decodes the extracted asset list.
func (d *Document) Assets() []Asset {
	return decodeField[[]Asset](d.payload[FieldAssets])
}

// Segments decodes the ordered segment list.
func (d *Document) Segments() []timeline.Segment {
	return decodeField[[]timeline.Segment](d.payload[FieldSegments])
}

// AudioAnalysis decodes the analysis summary into the supplied destination,
// reporting whether any analysis has been stored.
func (d *Document) AudioAnalysis(dst any) bool {
	v, ok := d.payload[FieldAudioAnalysis]
	if !ok || v == nil {
		return false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// CharacterProfiles collects the continuity profiles carried by character assets.
func (d *Document) CharacterProfiles() []continuity.CharacterProfile {
	var profiles []continuity.CharacterProfile
	for _, asset := range d.Assets() {
		if asset.Kind == AssetCharacter && asset.Profile != nil {
			profiles = append(profiles, *asset.Profile)
		}
	}
	return profiles
}

// decodeField round-trips an untyped payload value through JSON into T.
// Values written by this process may already be typed; values read from
// storage arrive as generic maps/slices.
func decodeField[T any](v any) T {
	var out T
	if v == nil {
		return out
	}
	if typed, ok := v.(T); ok {
		return typed
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// filterToWhitelist drops any key a sync update is not allowed to touch.
func filterToWhitelist(partial map[string]any) map[string]any {
	out := make(map[string]any, len(partial))
	for k, v := range partial {
		if _, ok := syncWhitelist[k]; ok {
			out[k] = v
		}
	}
	return out
}
