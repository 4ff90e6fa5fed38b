package main

import (
	"context"
	"log/slog"

	"storyreel/internal/api"
	"storyreel/internal/document"
	"storyreel/internal/logging"
	"storyreel/internal/progress"
)

// startStatusAPI hosts the status API inside the pipeline process, so the
// gate the control endpoints toggle is the gate the running stages check. A
// bind failure loses remote pause/status but never blocks the run itself.
func startStatusAPI(ctx context.Context, bind string, tracker *progress.Tracker, store *document.Store, logger *slog.Logger) *api.Server {
	server := api.NewServer(bind, tracker, store, logger)
	if err := server.Start(ctx); err != nil {
		logger.Warn("status api unavailable", logging.Error(err))
		return nil
	}
	return server
}
