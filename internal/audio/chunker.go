package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Chunker splits large audio files into fixed-duration chunks with ffmpeg
// stream copy so each piece can be transcribed independently.
type Chunker struct {
	binary string
	runner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ChunkerOption customizes the chunker.
type ChunkerOption func(*Chunker)

// WithRunner overrides command execution (used in tests).
func WithRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) ChunkerOption {
	return func(c *Chunker) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// NewChunker constructs a chunker using the supplied ffmpeg binary name.
func NewChunker(binary string, opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		binary: strings.TrimSpace(binary),
		runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
	if c.binary == "" {
		c.binary = "ffmpeg"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Split cuts the source into chunkSeconds-long pieces under dir and returns
// the chunk paths in playback order. The caller removes the chunks when done.
func (c *Chunker) Split(ctx context.Context, sourcePath, dir string, chunkSeconds int) ([]string, error) {
	if strings.TrimSpace(sourcePath) == "" {
		return nil, errors.New("audio chunk: empty source path")
	}
	if chunkSeconds <= 0 {
		return nil, fmt.Errorf("audio chunk: invalid chunk seconds %d", chunkSeconds)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio chunk: create chunk dir: %w", err)
	}

	ext := filepath.Ext(sourcePath)
	if ext == "" {
		ext = ".mp3"
	}
	pattern := filepath.Join(dir, "chunk_%03d"+ext)

	args := []string{
		"-v", "error", "-hide_banner",
		"-i", sourcePath,
		"-f", "segment",
		"-segment_time", strconv.Itoa(chunkSeconds),
		"-c", "copy",
		"-reset_timestamps", "1",
		pattern,
	}
	if output, err := c.runner(ctx, c.binary, args...); err != nil {
		return nil, fmt.Errorf("audio chunk: ffmpeg: %w: %s", err, strings.TrimSpace(string(output)))
	}

	matches, err := filepath.Glob(filepath.Join(dir, "chunk_*"+ext))
	if err != nil {
		return nil, fmt.Errorf("audio chunk: list chunks: %w", err)
	}
	if len(matches) == 0 {
		return nil, errors.New("audio chunk: ffmpeg produced no chunks")
	}
	sort.Strings(matches)
	return matches, nil
}

// Cleanup removes chunk files, ignoring individual failures.
func Cleanup(paths []string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}
