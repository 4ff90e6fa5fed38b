package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"storyreel/internal/config"
	"storyreel/internal/pipeline"
	"storyreel/internal/progress"
	"storyreel/internal/services"
	"storyreel/internal/timeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var storyID string

	cmd := &cobra.Command{
		Use:   "run <audio-file>",
		Short: "Run the full generation pipeline over an audio source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForPipeline(); err != nil {
				return err
			}
			audioPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(audioPath); err != nil {
				return fmt.Errorf("audio file: %w", err)
			}

			logger, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			id := strings.TrimSpace(storyID)
			if id == "" {
				id = deriveStoryID(audioPath)
			}

			tracker := progress.NewTracker(logger, progress.NewGate())
			unsubscribe := tracker.Subscribe(id, printEvent)
			defer unsubscribe()

			p := ctx.buildPipeline(cfg, store, tracker, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if server := startStatusAPI(runCtx, cfg.Paths.APIBind, tracker, store, logger); server != nil {
				defer server.Shutdown()
			}

			result, err := p.Run(runCtx, id, audioPath)
			if err != nil {
				return fmt.Errorf("story %s: %s", id, services.Details(err).Message)
			}

			fmt.Println()
			fmt.Println(segmentTable(result.Segments))
			printLintSummary(result)
			fmt.Printf("\nstory id: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&storyID, "story-id", "", "Story identifier (defaults to the audio file name)")
	return cmd
}

func deriveStoryID(audioPath string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	base = strings.ToLower(base)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "story"
	}
	return b.String()
}

func printEvent(ev progress.Event) {
	switch ev.Kind {
	case progress.EventStarted:
		fmt.Printf("▶ %s\n", ev.Task.Name)
	case progress.EventUpdated:
		if ev.Task.Progress != nil {
			fmt.Printf("  %s %.0f%% %s\n", ev.Task.Name, *ev.Task.Progress, ev.Task.Message)
		}
	case progress.EventCompleted:
		fmt.Printf("✓ %s\n", ev.Task.Name)
	case progress.EventFailed:
		fmt.Printf("✗ %s: %s\n", ev.Task.Name, ev.Task.Message)
	}
}

func segmentTable(segments []timeline.Segment) string {
	rows := make([][]string, 0, len(segments))
	for _, seg := range segments {
		rows = append(rows, []string{
			seg.ID,
			fmt.Sprintf("%.2f", seg.StartTime),
			fmt.Sprintf("%.2f", seg.Duration),
			string(seg.Status),
			truncate(seg.Prompt, 60),
		})
	}
	return renderTable(
		[]string{"Segment", "Start", "Duration", "Status", "Prompt"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	)
}

func printLintSummary(result *pipeline.Result) {
	if result.Lint == nil {
		return
	}
	fmt.Printf("lint: %d flag(s), clean rate %.0f%%\n", result.Lint.TotalFlags, result.Lint.CleanRate*100)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
