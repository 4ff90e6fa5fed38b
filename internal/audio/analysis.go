package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Summary holds the per-story audio analysis statistics stored in the
// canonical document. Field shapes follow the external analyzer's JSON
// output: tempo/beat detection, RMS energy, spectral means, and rhythm
// metrics.
type Summary struct {
	DurationSeconds       float64   `json:"durationSeconds"`
	Tempo                 float64   `json:"tempo,omitempty"`
	BeatCount             int       `json:"beatCount,omitempty"`
	BeatTimes             []float64 `json:"beatTimes,omitempty"`
	MeanEnergy            float64   `json:"meanEnergy,omitempty"`
	PeakEnergy            float64   `json:"peakEnergy,omitempty"`
	SpectralCentroidMean  float64   `json:"spectralCentroidMean,omitempty"`
	SpectralRolloffMean   float64   `json:"spectralRolloffMean,omitempty"`
	SpectralBandwidthMean float64   `json:"spectralBandwidthMean,omitempty"`
	ZeroCrossingRateMean  float64   `json:"zeroCrossingRateMean,omitempty"`
	RhythmStrength        float64   `json:"rhythmStrength,omitempty"`
	RhythmRegularity      float64   `json:"rhythmRegularity,omitempty"`
}

// Describe renders the one-line summary used in prompts and logs.
func (s Summary) Describe() string {
	parts := []string{fmt.Sprintf("duration %.1fs", s.DurationSeconds)}
	if s.Tempo > 0 {
		parts = append(parts, fmt.Sprintf("tempo %.0f BPM", s.Tempo))
	}
	if s.BeatCount > 0 {
		parts = append(parts, fmt.Sprintf("%d beats", s.BeatCount))
	}
	if s.MeanEnergy > 0 {
		parts = append(parts, fmt.Sprintf("mean energy %.2f", s.MeanEnergy))
	}
	if s.RhythmStrength > 0 {
		parts = append(parts, fmt.Sprintf("rhythm strength %.2f", s.RhythmStrength))
	}
	return strings.Join(parts, ", ")
}

// Analyzer runs the configured external analysis command against an audio
// file. When no command is configured the summary degrades to duration-only
// via ffprobe.
type Analyzer struct {
	command       string
	ffprobeBinary string
	runner        func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// AnalyzerOption customizes the analyzer.
type AnalyzerOption func(*Analyzer)

// WithAnalyzerRunner overrides command execution (used in tests).
func WithAnalyzerRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) AnalyzerOption {
	return func(a *Analyzer) {
		if runner != nil {
			a.runner = runner
		}
	}
}

// NewAnalyzer constructs an analyzer. command may be empty.
func NewAnalyzer(command, ffprobeBinary string, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		command:       strings.TrimSpace(command),
		ffprobeBinary: ffprobeBinary,
		runner: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze produces the analysis summary for the audio file.
func (a *Analyzer) Analyze(ctx context.Context, path string) (Summary, error) {
	if a.command == "" {
		info, err := Probe(ctx, a.ffprobeBinary, path)
		if err != nil {
			return Summary{}, err
		}
		return Summary{DurationSeconds: info.DurationSeconds}, nil
	}

	fields := strings.Fields(a.command)
	args := append(fields[1:], path)
	output, err := a.runner(ctx, fields[0], args...)
	if err != nil {
		return Summary{}, fmt.Errorf("audio analyze: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(output, &summary); err != nil {
		return Summary{}, fmt.Errorf("audio analyze: parse output: %w", err)
	}
	if summary.BeatCount == 0 && len(summary.BeatTimes) > 0 {
		summary.BeatCount = len(summary.BeatTimes)
	}
	return summary, nil
}
