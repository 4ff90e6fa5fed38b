package pipeline

import (
	"context"

	"storyreel/internal/audio"
	"storyreel/internal/document"
)

// Transcriber converts one audio file (or chunk) into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Researcher produces free-form text for a prompt. Used by the research and
// context assembly stages, each under its own system persona.
type Researcher interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Analyzer summarizes the musical and spectral character of an audio file.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (audio.Summary, error)
}

// AssetExtractor pulls characters, locations, and props out of the story
// material.
type AssetExtractor interface {
	ExtractAssets(ctx context.Context, transcript string, summary audio.Summary, research string) ([]document.Asset, error)
}

// ImageGenerator renders a reference image for an extracted asset and returns
// the saved file path.
type ImageGenerator interface {
	GenerateReferenceImage(ctx context.Context, asset document.Asset) (string, error)
}

// SynthesisInput carries everything the script synthesis provider needs.
type SynthesisInput struct {
	StoryID      string
	Title        string
	TimingMap    []document.TimingFragment
	Summary      audio.Summary
	Assets       []document.Asset
	Research     string
	ContextBrief string
}

// SegmentPair joins one timing-derived fragment with the creative payload the
// synthesis provider produced for the same segment id. It exists only for the
// duration of one synthesis call and is never persisted.
type SegmentPair struct {
	Fragment       document.TimingFragment
	Prompt         string
	AssetIDs       []string
	ContinuityRef  string
	ContinuityType string
	ContextNote    string
}

// Synthesizer produces creative payloads keyed by segment id
// ("segment_1" .. "segment_n", matching timing map order).
type Synthesizer interface {
	Synthesize(ctx context.Context, input SynthesisInput) (map[string]SegmentPair, error)
}
