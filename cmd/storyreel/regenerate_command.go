package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyreel/internal/progress"
	"storyreel/internal/services"
)

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	var segmentID string

	cmd := &cobra.Command{
		Use:   "regenerate <story-id>",
		Short: "Rerun script synthesis over an existing story",
		Long: `Rerun script synthesis using the stored transcript, timing map, research,
and asset library. With --segment only that segment's result is written back;
every other segment is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateForPipeline(); err != nil {
				return err
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

			storyID := args[0]
			tracker := progress.NewTracker(logger, progress.NewGate())
			unsubscribe := tracker.Subscribe(storyID, printEvent)
			defer unsubscribe()

			p := ctx.buildPipeline(cfg, store, tracker, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if server := startStatusAPI(runCtx, cfg.Paths.APIBind, tracker, store, logger); server != nil {
				defer server.Shutdown()
			}

			result, err := p.Regenerate(runCtx, storyID, segmentID)
			if err != nil {
				return fmt.Errorf("story %s: %s", storyID, services.Details(err).Message)
			}

			fmt.Println()
			fmt.Println(segmentTable(result.Segments))
			printLintSummary(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&segmentID, "segment", "", "Regenerate only this segment id (e.g. segment_3)")
	return cmd
}
