package pipeline

import (
	"context"
	"strings"
	"testing"

	"storyreel/internal/audio"
	"storyreel/internal/document"
)

type fakeChat struct {
	text string
	json string
	err  error
}

func (f fakeChat) CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.text, f.err
}

func (f fakeChat) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.json, f.err
}

func TestLLMAssetExtractorParsesAssets(t *testing.T) {
	extractor := &LLMAssetExtractor{client: fakeChat{json: `{
		"assets": [
			{"id": "fisherman", "name": "Old Fisherman", "kind": "character",
			 "description": "weathered man in oilskins",
			 "profile": {"name": "Old Fisherman", "currentState": "default"}},
			{"name": "Harbor", "kind": "location", "description": "stone quay"}
		]
	}`}}

	assets, err := extractor.ExtractAssets(context.Background(), "transcript", audio.Summary{}, "research")
	if err != nil {
		t.Fatalf("ExtractAssets returned error: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[0].ID != "fisherman" || assets[0].Kind != document.AssetCharacter {
		t.Fatalf("unexpected first asset %+v", assets[0])
	}
	if assets[0].Profile == nil {
		t.Fatal("character profile dropped")
	}
	// Assets without an id get one assigned.
	if assets[1].ID == "" {
		t.Fatal("missing id not backfilled")
	}
}

func TestLLMSynthesizerPairsFragments(t *testing.T) {
	synth := &LLMSynthesizer{client: fakeChat{json: `{
		"segments": {
			"segment_1": {"prompt": "boats on dark water", "assetIds": ["fisherman"]},
			"segment_2": {"prompt": "nets hauled over the rail", "continuityRef": "segment_1", "continuityType": "segment"}
		}
	}`}}

	input := SynthesisInput{
		TimingMap: []document.TimingFragment{
			{Index: 0, Text: "The boats left.", StartTime: 0, Duration: 4},
			{Index: 1, Text: "The nets came back.", StartTime: 4, Duration: 6},
		},
	}
	pairs, err := synth.Synthesize(context.Background(), input)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	first := pairs["segment_1"]
	if first.Prompt != "boats on dark water" {
		t.Fatalf("unexpected prompt %q", first.Prompt)
	}
	if first.Fragment.Duration != 4 {
		t.Fatalf("fragment not paired: %+v", first.Fragment)
	}
	second := pairs["segment_2"]
	if second.ContinuityRef != "segment_1" || second.Fragment.StartTime != 4 {
		t.Fatalf("unexpected second pair %+v", second)
	}
}

func TestSynthesisUserPromptListsFragments(t *testing.T) {
	prompt := synthesisUserPrompt(SynthesisInput{
		Title: "harbor.mp3",
		TimingMap: []document.TimingFragment{
			{Index: 0, Text: "The boats left.", StartTime: 0, Duration: 4},
		},
		Assets: []document.Asset{{ID: "fisherman", Name: "Old Fisherman", Kind: document.AssetCharacter, Description: "weathered"}},
	})
	for _, want := range []string{"segment_1", "The boats left.", "id=fisherman"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestStageLabel(t *testing.T) {
	if got := StageScriptSynthesis.Label(); got != "Script Synthesis" {
		t.Fatalf("label %q", got)
	}
	if got := StageTimingMap.TaskID("story1"); got != "story1_timing_map" {
		t.Fatalf("task id %q", got)
	}
}
