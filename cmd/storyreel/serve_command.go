package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storyreel/internal/api"
	"storyreel/internal/progress"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status API standalone for browsing stored documents",
		Long: `Serve the status API without running a pipeline, for browsing stored
documents between runs. While a run is active the run process hosts the API
itself; serve cannot share the document store with it (exclusive lock).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
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

			tracker := progress.NewTracker(logger, progress.NewGate())
			server := api.NewServer(cfg.Paths.APIBind, tracker, store, logger)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.Start(runCtx); err != nil {
				return err
			}
			defer server.Shutdown()

			fmt.Printf("status api listening on %s\n", server.Addr())
			<-runCtx.Done()
			return nil
		},
	}
	return cmd
}
