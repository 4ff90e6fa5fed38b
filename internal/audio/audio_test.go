package audio_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/audio"
	"storyreel/internal/testsupport"
)

func TestChunkerSplitBuildsFfmpegInvocation(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "narration.mp3")
	testsupport.WriteFile(t, source, 1024)

	var gotName string
	var gotArgs []string
	chunker := audio.NewChunker("ffmpeg", audio.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		// Simulate ffmpeg writing two chunks.
		testsupport.WriteFile(t, filepath.Join(dir, "chunks", "chunk_000.mp3"), 10)
		testsupport.WriteFile(t, filepath.Join(dir, "chunks", "chunk_001.mp3"), 10)
		return nil, nil
	}))

	chunks, err := chunker.Split(context.Background(), source, filepath.Join(dir, "chunks"), 300)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-segment_time 300") {
		t.Fatalf("expected segment_time arg, got %q", joined)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %v", chunks)
	}
	if !strings.HasSuffix(chunks[0], "chunk_000.mp3") || !strings.HasSuffix(chunks[1], "chunk_001.mp3") {
		t.Fatalf("chunks not in order: %v", chunks)
	}
}

func TestChunkerSplitNoChunksProduced(t *testing.T) {
	chunker := audio.NewChunker("ffmpeg", audio.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, nil
	}))
	if _, err := chunker.Split(context.Background(), "in.mp3", t.TempDir(), 60); err == nil {
		t.Fatal("expected error when ffmpeg produces no chunks")
	}
}

func TestChunkerSplitRejectsInvalidInput(t *testing.T) {
	chunker := audio.NewChunker("")
	if _, err := chunker.Split(context.Background(), "", t.TempDir(), 300); err == nil {
		t.Fatal("expected error for empty source")
	}
	if _, err := chunker.Split(context.Background(), "in.mp3", t.TempDir(), 0); err == nil {
		t.Fatal("expected error for non-positive chunk seconds")
	}
}

func TestAnalyzerParsesExternalOutput(t *testing.T) {
	payload := `{
		"durationSeconds": 182.5,
		"tempo": 92,
		"beatTimes": [0.5, 1.1, 1.8],
		"meanEnergy": 0.42,
		"rhythmStrength": 0.7,
		"rhythmRegularity": 0.88
	}`
	analyzer := audio.NewAnalyzer("analyze-audio --json", "ffprobe",
		audio.WithAnalyzerRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			if name != "analyze-audio" {
				t.Fatalf("unexpected command %q", name)
			}
			if args[0] != "--json" {
				t.Fatalf("expected configured flag first, got %v", args)
			}
			return []byte(payload), nil
		}))

	summary, err := analyzer.Analyze(context.Background(), "narration.mp3")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if summary.Tempo != 92 {
		t.Fatalf("unexpected tempo %v", summary.Tempo)
	}
	if summary.BeatCount != 3 {
		t.Fatalf("expected beat count derived from beat times, got %d", summary.BeatCount)
	}
	if !strings.Contains(summary.Describe(), "tempo 92 BPM") {
		t.Fatalf("unexpected description %q", summary.Describe())
	}
}

func TestAnalyzerPropagatesCommandFailure(t *testing.T) {
	analyzer := audio.NewAnalyzer("analyze-audio", "ffprobe",
		audio.WithAnalyzerRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		}))
	if _, err := analyzer.Analyze(context.Background(), "narration.mp3"); err == nil {
		t.Fatal("expected analyzer failure to propagate")
	}
}
