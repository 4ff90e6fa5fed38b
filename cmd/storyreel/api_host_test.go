package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"storyreel/internal/logging"
	"storyreel/internal/progress"
	"storyreel/internal/testsupport"
)

func TestStatusAPIControlsPipelineGate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	tracker := progress.NewTracker(logger, progress.NewGate())
	tracker.StartTask("story1_pipeline", "Pipeline", "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	server := startStatusAPI(ctx, "127.0.0.1:0", tracker, store, logger)
	if server == nil {
		t.Fatal("status api failed to start")
	}
	defer server.Shutdown()
	base := "http://" + server.Addr()

	resp, err := http.Post(base+"/api/control/pause", "application/json", nil)
	if err != nil {
		t.Fatalf("pause request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pause returned http %d", resp.StatusCode)
	}
	if !tracker.Gate().Paused() {
		t.Fatal("pause endpoint did not pause the gate stages check")
	}

	resp, err = http.Get(base + "/api/tasks")
	if err != nil {
		t.Fatalf("tasks request: %v", err)
	}
	var payload struct {
		Tasks []taskView `json:"tasks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode tasks: %v", err)
	}
	resp.Body.Close()
	if len(payload.Tasks) != 1 || payload.Tasks[0].ID != "story1_pipeline" {
		t.Fatalf("tasks endpoint does not expose the run's tracker: %+v", payload.Tasks)
	}

	resp, err = http.Post(base+"/api/control/resume", "application/json", nil)
	if err != nil {
		t.Fatalf("resume request: %v", err)
	}
	resp.Body.Close()
	if tracker.Gate().Paused() {
		t.Fatal("resume endpoint did not release the gate")
	}
}
