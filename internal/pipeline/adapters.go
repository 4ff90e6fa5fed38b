package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storyreel/internal/audio"
	"storyreel/internal/document"
	"storyreel/internal/services/imagegen"
	"storyreel/internal/services/llm"
)

// chatClient is the slice of the llm client the adapters need.
type chatClient interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMResearcher backs the research and context assembly stages with a chat
// completion model.
type LLMResearcher struct {
	client chatClient
}

// NewLLMResearcher wraps the chat client as a Researcher.
func NewLLMResearcher(client *llm.Client) *LLMResearcher {
	return &LLMResearcher{client: client}
}

// GenerateText implements Researcher.
func (r *LLMResearcher) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return r.client.CompleteText(ctx, systemPrompt, userPrompt)
}

// LLMAssetExtractor backs the asset extraction stage with a chat completion
// model constrained to JSON output.
type LLMAssetExtractor struct {
	client chatClient
}

// NewLLMAssetExtractor wraps the chat client as an AssetExtractor.
func NewLLMAssetExtractor(client *llm.Client) *LLMAssetExtractor {
	return &LLMAssetExtractor{client: client}
}

// ExtractAssets implements AssetExtractor.
func (e *LLMAssetExtractor) ExtractAssets(ctx context.Context, transcript string, summary audio.Summary, research string) ([]document.Asset, error) {
	raw, err := e.client.CompleteJSON(ctx, extractionSystemPrompt, extractionUserPrompt(transcript, research, summary))
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Assets []document.Asset `json:"assets"`
	}
	if err := llm.DecodeLLMJSON(raw, &parsed); err != nil {
		return nil, fmt.Errorf("asset extraction: parse payload: %w", err)
	}
	for i := range parsed.Assets {
		if strings.TrimSpace(parsed.Assets[i].ID) == "" {
			parsed.Assets[i].ID = uuid.NewString()
		}
	}
	return parsed.Assets, nil
}

// LLMSynthesizer backs the script synthesis stage with a chat completion
// model constrained to JSON output.
type LLMSynthesizer struct {
	client chatClient
}

// NewLLMSynthesizer wraps the chat client as a Synthesizer.
func NewLLMSynthesizer(client *llm.Client) *LLMSynthesizer {
	return &LLMSynthesizer{client: client}
}

type synthesizedSegment struct {
	Prompt         string   `json:"prompt"`
	AssetIDs       []string `json:"assetIds"`
	ContinuityRef  string   `json:"continuityRef"`
	ContinuityType string   `json:"continuityType"`
	ContextNote    string   `json:"contextNote"`
}

// Synthesize implements Synthesizer. The result carries one SegmentPair per
// timing fragment; a fragment the model skipped is reported as an error by
// the orchestrator, not here.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, input SynthesisInput) (map[string]SegmentPair, error) {
	raw, err := s.client.CompleteJSON(ctx, synthesisSystemPrompt, synthesisUserPrompt(input))
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Segments map[string]synthesizedSegment `json:"segments"`
	}
	if err := llm.DecodeLLMJSON(raw, &parsed); err != nil {
		return nil, fmt.Errorf("script synthesis: parse payload: %w", err)
	}

	fragmentsByID := make(map[string]document.TimingFragment, len(input.TimingMap))
	for i, f := range input.TimingMap {
		fragmentsByID[segmentID(i+1)] = f
	}

	pairs := make(map[string]SegmentPair, len(parsed.Segments))
	for id, seg := range parsed.Segments {
		pairs[id] = SegmentPair{
			Fragment:       fragmentsByID[id],
			Prompt:         strings.TrimSpace(seg.Prompt),
			AssetIDs:       seg.AssetIDs,
			ContinuityRef:  strings.TrimSpace(seg.ContinuityRef),
			ContinuityType: strings.TrimSpace(seg.ContinuityType),
			ContextNote:    strings.TrimSpace(seg.ContextNote),
		}
	}
	return pairs, nil
}

// ImageClient adapts the imagegen HTTP client to the ImageGenerator
// interface, saving rendered references under outputDir.
type ImageClient struct {
	client    *imagegen.Client
	outputDir string
}

// NewImageClient wraps the imagegen client as an ImageGenerator.
func NewImageClient(client *imagegen.Client, outputDir string) *ImageClient {
	return &ImageClient{client: client, outputDir: outputDir}
}

// GenerateReferenceImage implements ImageGenerator.
func (g *ImageClient) GenerateReferenceImage(ctx context.Context, asset document.Asset) (string, error) {
	prompt := strings.TrimSpace(asset.Description)
	if prompt == "" {
		prompt = asset.Name
	}
	prompt = fmt.Sprintf("Reference image of %s (%s): %s", asset.Name, asset.Kind, prompt)
	return g.client.Generate(ctx, prompt, g.outputDir, asset.Name)
}
