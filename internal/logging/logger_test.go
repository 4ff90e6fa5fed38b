package logging_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/logging"
	"storyreel/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "storyreel.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hello", logging.String("k", "v"))
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithStoryID(context.Background(), "story-1")
	ctx = services.WithStage(ctx, "transcription")

	fields := logging.ContextFields(ctx)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	joined := strings.Join(keys, ",")
	if !strings.Contains(joined, logging.FieldStoryID) || !strings.Contains(joined, logging.FieldStage) {
		t.Fatalf("expected story and stage fields, got %v", keys)
	}
}

func TestComponentLoggerNilBase(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "progress")
	if logger == nil {
		t.Fatal("expected logger")
	}
	logger.Info("noop")
}
