package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"storyreel/internal/audio"
	"storyreel/internal/config"
	"storyreel/internal/continuity"
	"storyreel/internal/document"
	"storyreel/internal/logging"
	"storyreel/internal/progress"
	"storyreel/internal/services"
	"storyreel/internal/timeline"
)

// Chunker splits an audio file into fixed-duration pieces for per-chunk
// transcription.
type Chunker interface {
	Split(ctx context.Context, sourcePath, dir string, chunkSeconds int) ([]string, error)
}

// Prober inspects an audio file's duration and byte size.
type Prober func(ctx context.Context, path string) (audio.Info, error)

// Options wires the orchestrator's collaborators.
type Options struct {
	Config      *config.Config
	Store       *document.Store
	Tracker     *progress.Tracker
	Logger      *slog.Logger
	Transcriber Transcriber
	Researcher  Researcher
	Analyzer    Analyzer
	Extractor   AssetExtractor
	Synthesizer Synthesizer
	// Images is optional; when nil, reference image generation is skipped.
	Images  ImageGenerator
	Chunker Chunker
	Prober  Prober
}

// Pipeline sequences the generation stages for one story at a time, wiring
// every stage's output into the document store and the progress tree.
type Pipeline struct {
	cfg     *config.Config
	store   *document.Store
	tracker *progress.Tracker
	logger  *slog.Logger

	transcriber Transcriber
	researcher  Researcher
	analyzer    Analyzer
	extractor   AssetExtractor
	synthesizer Synthesizer
	images      ImageGenerator
	chunker     Chunker
	prober      Prober
}

// Result is the in-memory outcome of a run. It stays valid even when a
// document write failed along the way.
type Result struct {
	StoryID  string
	Segments []timeline.Segment
	Lint     *continuity.Report
}

// New constructs the orchestrator from its options.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:         opts.Config,
		store:       opts.Store,
		tracker:     opts.Tracker,
		logger:      logging.NewComponentLogger(logger, "pipeline"),
		transcriber: opts.Transcriber,
		researcher:  opts.Researcher,
		analyzer:    opts.Analyzer,
		extractor:   opts.Extractor,
		synthesizer: opts.Synthesizer,
		images:      opts.Images,
		chunker:     opts.Chunker,
		prober:      opts.Prober,
	}
	if p.chunker == nil && opts.Config != nil {
		p.chunker = audio.NewChunker(opts.Config.FFmpegBinary())
	}
	if p.prober == nil && opts.Config != nil {
		binary := opts.Config.FFprobeBinary()
		p.prober = func(ctx context.Context, path string) (audio.Info, error) {
			return audio.Probe(ctx, binary, path)
		}
	}
	return p
}

// Run executes the full stage sequence for one story. The document is created
// when it does not exist yet. Stage failures abort the remaining stages and
// propagate; document write failures are logged and never abort a stage.
func (p *Pipeline) Run(ctx context.Context, storyID, audioPath string) (*Result, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "story id required", nil)
	}
	ctx = services.WithStoryID(ctx, storyID)

	if err := p.ensureDocument(ctx, storyID, audioPath); err != nil {
		return nil, err
	}

	rootID := RootTaskID(storyID)
	p.tracker.StartTask(rootID, "Pipeline", "")

	var (
		info       audio.Info
		transcript string
		fragments  []document.TimingFragment
		research   string
		summary    audio.Summary
		assets     []document.Asset
		brief      string
		segments   []timeline.Segment
		report     *continuity.Report
	)

	stages := []struct {
		stage Stage
		fn    func(ctx context.Context) (map[string]any, error)
	}{
		{StageTranscription, func(ctx context.Context) (map[string]any, error) {
			i, err := p.prober(ctx, audioPath)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, string(StageTranscription), "probe", "inspect source audio", err)
			}
			info = i
			text, err := p.transcribeSource(ctx, storyID, audioPath, info)
			if err != nil {
				return nil, err
			}
			transcript = text
			return map[string]any{document.FieldTranscription: transcript}, nil
		}},
		{StageTimingMap, func(ctx context.Context) (map[string]any, error) {
			fragments = buildTimingMap(transcript, info.DurationSeconds)
			if len(fragments) == 0 {
				return nil, services.Wrap(services.ErrValidation, string(StageTimingMap), "build",
					"transcript or duration empty, no timing map derivable", nil)
			}
			return map[string]any{document.FieldTimingMap: fragments}, nil
		}},
		{StageResearch, func(ctx context.Context) (map[string]any, error) {
			text, err := p.researcher.GenerateText(ctx, researchSystemPrompt, researchUserPrompt(transcript))
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, string(StageResearch), "generate", "research generation failed", err)
			}
			research = text
			return map[string]any{document.FieldResearch: research}, nil
		}},
		{StageAudioAnalysis, func(ctx context.Context) (map[string]any, error) {
			s, err := p.analyzer.Analyze(ctx, audioPath)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, string(StageAudioAnalysis), "analyze", "audio analysis failed", err)
			}
			summary = s
			return map[string]any{document.FieldAudioAnalysis: summary}, nil
		}},
		{StageAssetExtraction, func(ctx context.Context) (map[string]any, error) {
			extracted, err := p.extractor.ExtractAssets(ctx, transcript, summary, research)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, string(StageAssetExtraction), "extract", "asset extraction failed", err)
			}
			assets = extracted
			p.generateAssetImages(ctx, storyID, assets)
			return map[string]any{document.FieldAssets: assets}, nil
		}},
		{StageContextAssembly, func(ctx context.Context) (map[string]any, error) {
			text, err := p.researcher.GenerateText(ctx, contextSystemPrompt, contextUserPrompt(transcript, research, summary, assets))
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, string(StageContextAssembly), "assemble", "context assembly failed", err)
			}
			brief = text
			return map[string]any{document.FieldContextBrief: brief}, nil
		}},
		{StageScriptSynthesis, func(ctx context.Context) (map[string]any, error) {
			input := SynthesisInput{
				StoryID:      storyID,
				Title:        filepath.Base(audioPath),
				TimingMap:    fragments,
				Summary:      summary,
				Assets:       assets,
				Research:     research,
				ContextBrief: brief,
			}
			pairs, err := p.synthesizer.Synthesize(ctx, input)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalTool, string(StageScriptSynthesis), "synthesize", "script synthesis failed", err)
			}
			built, err := buildSegments(fragments, pairs)
			if err != nil {
				return nil, err
			}
			segments = built
			report = p.lintSegments(ctx, segments, profilesFromAssets(assets))
			return map[string]any{document.FieldSegments: segments}, nil
		}},
	}

	for _, s := range stages {
		if err := p.runStage(ctx, storyID, rootID, s.stage, s.fn); err != nil {
			return nil, err
		}
	}

	p.tracker.CompleteTask(rootID, "")
	return &Result{StoryID: storyID, Segments: segments, Lint: report}, nil
}

// Regenerate reruns script synthesis over an existing document. When
// segmentID is non-empty only that segment's result is written back; every
// other segment stays byte-for-byte untouched.
func (p *Pipeline) Regenerate(ctx context.Context, storyID, segID string) (*Result, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "regenerate", "story id required", nil)
	}
	ctx = services.WithStoryID(ctx, storyID)
	if segID != "" {
		ctx = services.WithSegmentID(ctx, segID)
	}

	doc, err := p.store.Get(ctx, storyID)
	if err != nil {
		return nil, err
	}
	fragments := doc.TimingMap()
	if len(fragments) == 0 {
		return nil, services.Wrap(services.ErrValidation, string(StageScriptSynthesis), "regenerate",
			"document has no timing map; run the full pipeline first", nil)
	}

	var summary audio.Summary
	doc.AudioAnalysis(&summary)
	assets := doc.Assets()

	rootID := RootTaskID(storyID)
	p.tracker.StartTask(rootID, "Pipeline", "")

	var (
		segments []timeline.Segment
		report   *continuity.Report
	)
	err = p.runStage(ctx, storyID, rootID, StageScriptSynthesis, func(ctx context.Context) (map[string]any, error) {
		input := SynthesisInput{
			StoryID:      storyID,
			Title:        doc.Title(),
			TimingMap:    fragments,
			Summary:      summary,
			Assets:       assets,
			Research:     doc.Research(),
			ContextBrief: doc.ContextBrief(),
		}
		pairs, err := p.synthesizer.Synthesize(ctx, input)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, string(StageScriptSynthesis), "synthesize", "script synthesis failed", err)
		}

		if segID == "" {
			built, err := buildSegments(fragments, pairs)
			if err != nil {
				return nil, err
			}
			segments = built
		} else {
			pair, ok := pairs[segID]
			if !ok {
				return nil, services.Wrap(services.ErrExternalTool, string(StageScriptSynthesis), "synthesize",
					fmt.Sprintf("provider returned no result for %s", segID), nil)
			}
			replaced, err := timeline.ReplaceByID(doc.Segments(), segmentFromPair(segID, pair))
			if err != nil {
				return nil, err
			}
			segments = replaced
		}
		report = p.lintSegments(ctx, segments, doc.CharacterProfiles())
		return map[string]any{document.FieldSegments: segments}, nil
	})
	if err != nil {
		return nil, err
	}

	p.tracker.CompleteTask(rootID, "")
	return &Result{StoryID: storyID, Segments: segments, Lint: report}, nil
}

// runStage wraps one stage execution: pause gate, task bookkeeping, document
// sync. A stage error fails both the stage task and the root and propagates;
// a sync error is logged and swallowed.
func (p *Pipeline) runStage(ctx context.Context, storyID, rootID string, stage Stage, fn func(ctx context.Context) (map[string]any, error)) error {
	if err := p.tracker.Gate().CheckPause(ctx); err != nil {
		p.tracker.FailTask(rootID, "interrupted while paused")
		return services.Wrap(services.ErrTimeout, string(stage), "pause", "interrupted while paused", err)
	}

	taskID := stage.TaskID(storyID)
	stageCtx := services.WithStage(ctx, string(stage))
	p.tracker.StartTask(taskID, stage.Label(), rootID)

	fields, err := fn(stageCtx)
	if err != nil {
		p.tracker.FailTask(taskID, services.Details(err).Message)
		p.tracker.FailTask(rootID, fmt.Sprintf("%s failed", stage.Label()))
		logging.WithContext(stageCtx, p.logger).Error("stage failed", logging.Error(err))
		return err
	}
	p.tracker.CompleteTask(taskID, "")

	if len(fields) > 0 {
		if _, syncErr := p.store.SyncUpdate(stageCtx, storyID, fields); syncErr != nil {
			// The in-memory result stays usable by the next stage; a
			// persistence hiccup never aborts a successful computation.
			logging.WithContext(stageCtx, p.logger).Warn("document sync failed",
				logging.String(logging.FieldEventType, "document_sync_failed"),
				logging.Error(syncErr))
		}
	}
	return nil
}

func (p *Pipeline) ensureDocument(ctx context.Context, storyID, audioPath string) error {
	if _, err := p.store.Get(ctx, storyID); err == nil {
		return nil
	}
	seed := map[string]any{
		document.FieldTitle:      strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath)),
		document.FieldSourcePath: audioPath,
	}
	if _, err := p.store.CreateInitial(ctx, storyID, seed); err != nil {
		return err
	}
	return nil
}

// transcribeSource transcribes the file directly when it is small enough,
// otherwise splits it into fixed-duration chunks, transcribes each under its
// own child task, and concatenates transcripts in chunk order.
func (p *Pipeline) transcribeSource(ctx context.Context, storyID, audioPath string, info audio.Info) (string, error) {
	threshold := int64(p.cfg.Transcription.LargeFileThresholdMiB) * 1024 * 1024
	if threshold <= 0 || info.SizeBytes <= threshold {
		text, err := p.transcriber.Transcribe(ctx, audioPath)
		if err != nil {
			return "", services.Wrap(services.ErrExternalTool, string(StageTranscription), "transcribe", "transcription failed", err)
		}
		return text, nil
	}

	chunks, err := p.chunker.Split(ctx, audioPath, p.cfg.Paths.WorkspaceDir, p.cfg.Transcription.ChunkSeconds)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, string(StageTranscription), "chunk", "audio chunking failed", err)
	}
	defer audio.Cleanup(chunks)

	parentID := StageTranscription.TaskID(storyID)
	parts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		chunkTaskID := fmt.Sprintf("%s_transcription_chunk_%d", storyID, i+1)
		p.tracker.StartTask(chunkTaskID, fmt.Sprintf("Chunk %d/%d", i+1, len(chunks)), parentID)
		text, err := p.transcriber.Transcribe(ctx, chunk)
		if err != nil {
			p.tracker.FailTask(chunkTaskID, err.Error())
			return "", services.Wrap(services.ErrExternalTool, string(StageTranscription), "transcribe",
				fmt.Sprintf("chunk %d/%d failed", i+1, len(chunks)), err)
		}
		p.tracker.CompleteTask(chunkTaskID, "")
		pct := float64(i+1) / float64(len(chunks)) * 100
		p.tracker.UpdateTask(parentID, progress.StatusRunning, fmt.Sprintf("%d/%d chunks", i+1, len(chunks)), &pct)
		parts = append(parts, strings.TrimSpace(text))
	}
	return strings.Join(parts, " "), nil
}

// generateAssetImages fans out one task per asset. Failures are logged and
// reflected only in that task's status; siblings and the parent stage are
// unaffected. Image generation is best-effort decoration.
func (p *Pipeline) generateAssetImages(ctx context.Context, storyID string, assets []document.Asset) {
	if p.images == nil || len(assets) == 0 {
		return
	}
	parentID := StageAssetExtraction.TaskID(storyID)
	var wg sync.WaitGroup
	for i := range assets {
		taskID := fmt.Sprintf("%s_asset_%s", storyID, assets[i].ID)
		p.tracker.StartTask(taskID, "Image: "+assets[i].Name, parentID)
		wg.Add(1)
		go func(i int, taskID string) {
			defer wg.Done()
			path, err := p.images.GenerateReferenceImage(ctx, assets[i])
			if err != nil {
				p.tracker.FailTask(taskID, err.Error())
				logging.WithContext(ctx, p.logger).Warn("reference image failed",
					logging.String("asset_id", assets[i].ID),
					logging.Error(err))
				return
			}
			assets[i].ImagePath = path
			p.tracker.CompleteTask(taskID, "")
		}(i, taskID)
	}
	wg.Wait()
}

func (p *Pipeline) lintSegments(ctx context.Context, segments []timeline.Segment, profiles []continuity.CharacterProfile) *continuity.Report {
	if p.cfg == nil || !p.cfg.Lint.Enabled {
		return nil
	}
	cfg := continuity.Config{MinWords: p.cfg.Lint.MinWords, MaxWords: p.cfg.Lint.MaxWords}
	report := continuity.LintAll(segments, profiles, cfg)
	logging.WithContext(ctx, p.logger).Info("continuity lint",
		logging.Int("flags", report.TotalFlags),
		logging.Float64("clean_rate", report.CleanRate))
	return &report
}

// buildSegments pairs every timing fragment with the provider's creative
// payload, restamps start times, and validates contiguity.
func buildSegments(fragments []document.TimingFragment, pairs map[string]SegmentPair) ([]timeline.Segment, error) {
	segments := make([]timeline.Segment, 0, len(fragments))
	for i, f := range fragments {
		id := segmentID(i + 1)
		pair, ok := pairs[id]
		if !ok {
			return nil, services.Wrap(services.ErrExternalTool, string(StageScriptSynthesis), "synthesize",
				fmt.Sprintf("provider returned no result for %s", id), nil)
		}
		seg := segmentFromPair(id, pair)
		seg.SourceText = f.Text
		seg.Duration = f.Duration
		seg.StartTime = f.StartTime
		segments = append(segments, seg)
	}
	timeline.Restamp(segments)
	if err := timeline.Validate(segments); err != nil {
		return nil, err
	}
	return segments, nil
}

func segmentFromPair(id string, pair SegmentPair) timeline.Segment {
	return timeline.Segment{
		ID:             id,
		SourceText:     pair.Fragment.Text,
		Prompt:         pair.Prompt,
		Duration:       pair.Fragment.Duration,
		StartTime:      pair.Fragment.StartTime,
		Status:         timeline.SegmentPending,
		AssetIDs:       pair.AssetIDs,
		ContinuityRef:  pair.ContinuityRef,
		ContinuityType: pair.ContinuityType,
		ContextNote:    pair.ContextNote,
	}
}

func profilesFromAssets(assets []document.Asset) []continuity.CharacterProfile {
	var profiles []continuity.CharacterProfile
	for _, a := range assets {
		if a.Profile != nil {
			profiles = append(profiles, *a.Profile)
		}
	}
	return profiles
}
