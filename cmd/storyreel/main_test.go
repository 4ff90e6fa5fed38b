package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeriveStoryID(t *testing.T) {
	cases := map[string]string{
		"/audio/The Harbor.mp3":   "the_harbor",
		"Night-Shift_v2.wav":      "night_shift_v2",
		"###.mp3":                 "story",
		"/tmp/episode.01.flac":    "episode_01",
		"simple.mp3":              "simple",
	}
	for input, want := range cases {
		if got := deriveStoryID(input); got != want {
			t.Fatalf("deriveStoryID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate kept %q", got)
	}
	long := strings.Repeat("a", 80)
	got := truncate(long, 10)
	if len(got) <= 0 || !strings.HasSuffix(got, "…") {
		t.Fatalf("truncate produced %q", got)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newConfigInitCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(data), "[llm]") {
		t.Fatalf("sample config missing llm section:\n%s", data)
	}

	// A second init without --overwrite must refuse.
	cmd = newConfigInitCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestRenderTablePlain(t *testing.T) {
	got := renderTable(
		[]string{"Segment", "Duration"},
		[][]string{{"segment_1", "4.00"}, {"segment_2", "6.00"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(got, "segment_1") || !strings.Contains(got, "6.00") {
		t.Fatalf("table missing rows:\n%s", got)
	}
}
