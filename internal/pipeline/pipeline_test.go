package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"storyreel/internal/audio"
	"storyreel/internal/config"
	"storyreel/internal/document"
	"storyreel/internal/logging"
	"storyreel/internal/progress"
	"storyreel/internal/testsupport"
	"storyreel/internal/timeline"
)

type fakeTranscriber struct {
	fn func(ctx context.Context, path string) (string, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	return f.fn(ctx, path)
}

type fakeResearcher struct {
	fn func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (f *fakeResearcher) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.fn(ctx, systemPrompt, userPrompt)
}

type fakeAnalyzer struct {
	summary audio.Summary
	err     error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, path string) (audio.Summary, error) {
	return f.summary, f.err
}

type fakeExtractor struct {
	assets []document.Asset
	err    error
	called bool
}

func (f *fakeExtractor) ExtractAssets(ctx context.Context, transcript string, summary audio.Summary, research string) ([]document.Asset, error) {
	f.called = true
	return f.assets, f.err
}

type fakeSynthesizer struct {
	fn     func(ctx context.Context, input SynthesisInput) (map[string]SegmentPair, error)
	called bool
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, input SynthesisInput) (map[string]SegmentPair, error) {
	f.called = true
	return f.fn(ctx, input)
}

type fakeImages struct {
	fn func(ctx context.Context, asset document.Asset) (string, error)
}

func (f *fakeImages) GenerateReferenceImage(ctx context.Context, asset document.Asset) (string, error) {
	return f.fn(ctx, asset)
}

type fakeChunker struct {
	chunks []string
	err    error
}

func (f *fakeChunker) Split(ctx context.Context, sourcePath, dir string, chunkSeconds int) ([]string, error) {
	return f.chunks, f.err
}

// uniformPairs returns a synthesizer that produces one prompt per fragment.
func uniformPairs(prompt string) func(ctx context.Context, input SynthesisInput) (map[string]SegmentPair, error) {
	return func(ctx context.Context, input SynthesisInput) (map[string]SegmentPair, error) {
		pairs := make(map[string]SegmentPair, len(input.TimingMap))
		for i, f := range input.TimingMap {
			pairs[fmt.Sprintf("segment_%d", i+1)] = SegmentPair{
				Fragment: f,
				Prompt:   fmt.Sprintf("%s %d", prompt, i+1),
			}
		}
		return pairs, nil
	}
}

type fixture struct {
	cfg     *config.Config
	store   *document.Store
	tracker *progress.Tracker
	opts    Options
	audio   string
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	tracker := progress.NewTracker(logging.NewNop(), progress.NewGate())
	audioPath := filepath.Join(t.TempDir(), "story.mp3")
	if err := os.WriteFile(audioPath, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio fixture: %v", err)
	}
	f := &fixture{cfg: cfg, store: store, tracker: tracker, audio: audioPath}
	f.opts = Options{
		Config:  cfg,
		Store:   store,
		Tracker: tracker,
		Logger:  logging.NewNop(),
		Transcriber: &fakeTranscriber{fn: func(ctx context.Context, path string) (string, error) {
			return "The boats left before dawn. The nets came back heavy. The village ate well that winter.", nil
		}},
		Researcher: &fakeResearcher{fn: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			return "North Atlantic fishing village, early 1900s.", nil
		}},
		Analyzer:    &fakeAnalyzer{summary: audio.Summary{DurationSeconds: 30, Tempo: 92}},
		Extractor:   &fakeExtractor{},
		Synthesizer: &fakeSynthesizer{fn: uniformPairs("wide shot")},
		Prober: func(ctx context.Context, path string) (audio.Info, error) {
			return audio.Info{Path: path, DurationSeconds: 30, SizeBytes: 5}, nil
		},
	}
	return f
}

func TestRunFullPipeline(t *testing.T) {
	f := newFixture(t)
	p := New(f.opts)

	result, err := p.Run(context.Background(), "story1", f.audio)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(result.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(result.Segments))
	}
	if err := timeline.Validate(result.Segments); err != nil {
		t.Fatalf("segments violate contiguity: %v", err)
	}
	if result.Segments[0].StartTime != 0 {
		t.Fatalf("first segment starts at %v", result.Segments[0].StartTime)
	}
	if result.Lint == nil {
		t.Fatal("expected a lint report with lint enabled")
	}

	doc, err := f.store.Get(context.Background(), "story1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if doc.Transcription() == "" {
		t.Fatal("transcription not persisted")
	}
	if doc.Research() == "" {
		t.Fatal("research not persisted")
	}
	if len(doc.TimingMap()) != 3 {
		t.Fatalf("expected 3 timing fragments, got %d", len(doc.TimingMap()))
	}
	if !reflect.DeepEqual(doc.Segments(), result.Segments) {
		t.Fatal("persisted segments differ from in-memory result")
	}

	root := f.tracker.Get(RootTaskID("story1"))
	if root == nil || root.Status != progress.StatusSuccess {
		t.Fatalf("unexpected root task %+v", root)
	}
	for _, stage := range Stages() {
		task := f.tracker.Get(stage.TaskID("story1"))
		if task == nil || task.Status != progress.StatusSuccess {
			t.Fatalf("stage %s not successful: %+v", stage, task)
		}
	}
}

func TestRunStagePersonas(t *testing.T) {
	f := newFixture(t)
	var systems []string
	f.opts.Researcher = &fakeResearcher{fn: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		systems = append(systems, systemPrompt)
		return "notes", nil
	}}
	p := New(f.opts)

	if _, err := p.Run(context.Background(), "story1", f.audio); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(systems) != 2 {
		t.Fatalf("expected 2 text generations, got %d", len(systems))
	}
	if systems[0] != researchSystemPrompt {
		t.Fatalf("research stage ran under the wrong persona: %q", systems[0])
	}
	if systems[1] != contextSystemPrompt {
		t.Fatalf("context assembly ran under the wrong persona: %q", systems[1])
	}
}

func TestRunFatalPropagation(t *testing.T) {
	f := newFixture(t)
	f.opts.Researcher = &fakeResearcher{fn: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		return "", errors.New("provider down")
	}}
	extractor := &fakeExtractor{}
	synth := &fakeSynthesizer{fn: uniformPairs("x")}
	f.opts.Extractor = extractor
	f.opts.Synthesizer = synth
	p := New(f.opts)

	_, err := p.Run(context.Background(), "story1", f.audio)
	if err == nil {
		t.Fatal("expected research failure to propagate")
	}
	if !strings.Contains(err.Error(), "research") {
		t.Fatalf("error does not name the failing stage: %v", err)
	}
	if extractor.called {
		t.Fatal("asset extraction ran after a fatal research failure")
	}
	if synth.called {
		t.Fatal("script synthesis ran after a fatal research failure")
	}

	if task := f.tracker.Get(StageResearch.TaskID("story1")); task == nil || task.Status != progress.StatusFailed {
		t.Fatalf("research task not failed: %+v", task)
	}
	if root := f.tracker.Get(RootTaskID("story1")); root == nil || root.Status != progress.StatusFailed {
		t.Fatalf("root task not failed: %+v", root)
	}
	for _, stage := range []Stage{StageAudioAnalysis, StageAssetExtraction, StageContextAssembly, StageScriptSynthesis} {
		if task := f.tracker.Get(stage.TaskID("story1")); task != nil {
			t.Fatalf("stage %s started after fatal failure", stage)
		}
	}
}

func TestRunChunkedTranscription(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	chunks := make([]string, 3)
	for i := range chunks {
		chunks[i] = filepath.Join(dir, fmt.Sprintf("chunk_%03d.mp3", i))
		if err := os.WriteFile(chunks[i], []byte("c"), 0o644); err != nil {
			t.Fatalf("write chunk: %v", err)
		}
	}
	f.opts.Chunker = &fakeChunker{chunks: chunks}
	f.opts.Prober = func(ctx context.Context, path string) (audio.Info, error) {
		return audio.Info{Path: path, DurationSeconds: 900, SizeBytes: 64 * 1024 * 1024}, nil
	}
	f.opts.Transcriber = &fakeTranscriber{fn: func(ctx context.Context, path string) (string, error) {
		return "part " + filepath.Base(path) + ".", nil
	}}
	p := New(f.opts)

	if _, err := p.Run(context.Background(), "story1", f.audio); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	doc, err := f.store.Get(context.Background(), "story1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	want := "part chunk_000.mp3. part chunk_001.mp3. part chunk_002.mp3."
	if doc.Transcription() != want {
		t.Fatalf("transcript %q, want chunk order preserved %q", doc.Transcription(), want)
	}
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("story1_transcription_chunk_%d", i)
		task := f.tracker.Get(id)
		if task == nil || task.Status != progress.StatusSuccess {
			t.Fatalf("chunk task %s not successful: %+v", id, task)
		}
		if task.ParentID != StageTranscription.TaskID("story1") {
			t.Fatalf("chunk task %s has parent %q", id, task.ParentID)
		}
	}
}

func TestRunAssetImageFailureIsBestEffort(t *testing.T) {
	f := newFixture(t, testsupport.WithImagesEnabled())
	f.opts.Extractor = &fakeExtractor{assets: []document.Asset{
		{ID: "asset_1", Name: "Fisherman", Kind: document.AssetCharacter},
		{ID: "asset_2", Name: "Harbor", Kind: document.AssetLocation},
	}}
	f.opts.Images = &fakeImages{fn: func(ctx context.Context, asset document.Asset) (string, error) {
		if asset.ID == "asset_1" {
			return "", errors.New("render failed")
		}
		return "/imgs/harbor.png", nil
	}}
	p := New(f.opts)

	if _, err := p.Run(context.Background(), "story1", f.audio); err != nil {
		t.Fatalf("image failure must not fail the run: %v", err)
	}

	if task := f.tracker.Get("story1_asset_asset_1"); task == nil || task.Status != progress.StatusFailed {
		t.Fatalf("failed asset task not marked failed: %+v", task)
	}
	if task := f.tracker.Get("story1_asset_asset_2"); task == nil || task.Status != progress.StatusSuccess {
		t.Fatalf("sibling asset task affected: %+v", task)
	}
	if task := f.tracker.Get(StageAssetExtraction.TaskID("story1")); task == nil || task.Status != progress.StatusSuccess {
		t.Fatalf("parent stage affected by best-effort failure: %+v", task)
	}

	doc, err := f.store.Get(context.Background(), "story1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	assets := doc.Assets()
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(assets))
	}
	if assets[1].ImagePath != "/imgs/harbor.png" {
		t.Fatalf("successful asset image path not recorded: %+v", assets[1])
	}
}

func TestRunLintDisabledSkipsReport(t *testing.T) {
	f := newFixture(t, testsupport.WithLintDisabled())
	p := New(f.opts)

	result, err := p.Run(context.Background(), "story1", f.audio)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Lint != nil {
		t.Fatalf("expected no lint report with lint disabled, got %+v", result.Lint)
	}
}

func TestRegenerateScopedIsolation(t *testing.T) {
	f := newFixture(t)
	p := New(f.opts)
	if _, err := p.Run(context.Background(), "story1", f.audio); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	before, err := f.store.Get(context.Background(), "story1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	beforeSegs := before.Segments()

	f.opts.Synthesizer = &fakeSynthesizer{fn: func(ctx context.Context, input SynthesisInput) (map[string]SegmentPair, error) {
		pairs, _ := uniformPairs("reworked close-up")(ctx, input)
		return pairs, nil
	}}
	p = New(f.opts)

	result, err := p.Regenerate(context.Background(), "story1", "segment_2")
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	if result.Segments[1].Prompt != "reworked close-up 2" {
		t.Fatalf("target segment not regenerated: %+v", result.Segments[1])
	}
	if result.Segments[1].StartTime != beforeSegs[1].StartTime || result.Segments[1].Duration != beforeSegs[1].Duration {
		t.Fatal("scoped regeneration perturbed the target's timing")
	}

	after, err := f.store.Get(context.Background(), "story1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	afterSegs := after.Segments()
	for _, i := range []int{0, 2} {
		wantJSON, _ := json.Marshal(beforeSegs[i])
		gotJSON, _ := json.Marshal(afterSegs[i])
		if string(wantJSON) != string(gotJSON) {
			t.Fatalf("segment %d changed by scoped regeneration:\nbefore %s\nafter  %s", i, wantJSON, gotJSON)
		}
	}
}

func TestRegenerateFullResynthesis(t *testing.T) {
	f := newFixture(t)
	p := New(f.opts)
	if _, err := p.Run(context.Background(), "story1", f.audio); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	f.opts.Synthesizer = &fakeSynthesizer{fn: uniformPairs("second draft")}
	p = New(f.opts)
	result, err := p.Regenerate(context.Background(), "story1", "")
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	for i, seg := range result.Segments {
		want := fmt.Sprintf("second draft %d", i+1)
		if seg.Prompt != want {
			t.Fatalf("segment %d prompt %q, want %q", i, seg.Prompt, want)
		}
	}
	if err := timeline.Validate(result.Segments); err != nil {
		t.Fatalf("resynthesized segments violate contiguity: %v", err)
	}
}

func TestRegenerateUnknownStory(t *testing.T) {
	f := newFixture(t)
	p := New(f.opts)
	if _, err := p.Regenerate(context.Background(), "ghost", ""); err == nil {
		t.Fatal("expected error for unknown story")
	}
}

func TestRunRequiresStoryID(t *testing.T) {
	f := newFixture(t)
	p := New(f.opts)
	if _, err := p.Run(context.Background(), "  ", f.audio); err == nil {
		t.Fatal("expected error for blank story id")
	}
}
