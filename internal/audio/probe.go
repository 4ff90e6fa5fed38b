package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Info captures the container-level facts the pipeline needs before
// transcription: duration for chunk math and byte size for the large-file
// threshold.
type Info struct {
	Path            string
	DurationSeconds float64
	SizeBytes       int64
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
}

// Probe executes ffprobe against the provided path and stats the file.
func Probe(ctx context.Context, binary, path string) (Info, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, errors.New("audio probe: empty path")
	}

	stat, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("audio probe: stat: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Info{}, fmt.Errorf("audio probe: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Info{}, fmt.Errorf("audio probe parse: %w", err)
	}

	return Info{
		Path:            path,
		DurationSeconds: parseFloat(result.Format.Duration),
		SizeBytes:       stat.Size(),
	}, nil
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}
