package pipeline

import (
	"fmt"
	"strings"

	"storyreel/internal/audio"
	"storyreel/internal/document"
)

const researchSystemPrompt = `You are a story researcher. Given a narration
transcript, produce concise background notes: setting, era, atmosphere,
cultural or historical context, and visual motifs a director could lean on.
Answer in plain prose.`

const contextSystemPrompt = `You are a film director's assistant. Combine the
supplied transcript, research notes, audio character, and asset library into a
single narrative context brief: tone, pacing guidance, and the visual through
line that every shot should respect. Answer in plain prose.`

const extractionSystemPrompt = `You extract reusable visual assets from story
material. Respond with JSON only: {"assets":[{"id":string,"name":string,
"kind":"character"|"location"|"prop","description":string,
"profile":{"name":string,"currentState":string,
"states":{<state>:{"name":string,"description":string,
"forbiddenTraits":[string]}}}|null}]}. Give characters a profile; locations
and props carry null.`

const synthesisSystemPrompt = `You write shot-by-shot director's scripts. For
each timing fragment you receive, produce one segment: a self-contained image
generation prompt describing only what is visible in the frame (no camera
directions, no meta narration), the asset ids in frame, an optional continuity
reference to an earlier segment or character state, and a short context note.
Respond with JSON only: {"segments":{<segmentId>:{"prompt":string,
"assetIds":[string],"continuityRef":string,"continuityType":string,
"contextNote":string}}}.`

func researchUserPrompt(transcript string) string {
	return "Transcript:\n" + transcript
}

func contextUserPrompt(transcript, research string, summary audio.Summary, assets []document.Asset) string {
	var b strings.Builder
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nResearch notes:\n")
	b.WriteString(research)
	b.WriteString("\n\nAudio character: ")
	b.WriteString(summary.Describe())
	if len(assets) > 0 {
		b.WriteString("\n\nAssets:\n")
		writeAssetLibrary(&b, assets)
	}
	return b.String()
}

func extractionUserPrompt(transcript, research string, summary audio.Summary) string {
	var b strings.Builder
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	if research != "" {
		b.WriteString("\n\nResearch notes:\n")
		b.WriteString(research)
	}
	b.WriteString("\n\nAudio character: ")
	b.WriteString(summary.Describe())
	return b.String()
}

func synthesisUserPrompt(input SynthesisInput) string {
	var b strings.Builder
	if input.Title != "" {
		fmt.Fprintf(&b, "Story: %s\n\n", input.Title)
	}
	b.WriteString("Timing fragments:\n")
	for i, f := range input.TimingMap {
		fmt.Fprintf(&b, "%s [%.2fs +%.2fs]: %s\n", segmentID(i+1), f.StartTime, f.Duration, f.Text)
	}
	b.WriteString("\nAudio character: ")
	b.WriteString(input.Summary.Describe())
	if input.Research != "" {
		b.WriteString("\n\nResearch notes:\n")
		b.WriteString(input.Research)
	}
	if input.ContextBrief != "" {
		b.WriteString("\n\nContext brief:\n")
		b.WriteString(input.ContextBrief)
	}
	if len(input.Assets) > 0 {
		b.WriteString("\n\nAsset library:\n")
		writeAssetLibrary(&b, input.Assets)
	}
	return b.String()
}

func writeAssetLibrary(b *strings.Builder, assets []document.Asset) {
	for _, a := range assets {
		fmt.Fprintf(b, "- %s (%s, id=%s): %s\n", a.Name, a.Kind, a.ID, a.Description)
	}
}

func segmentID(n int) string {
	return fmt.Sprintf("segment_%d", n)
}
