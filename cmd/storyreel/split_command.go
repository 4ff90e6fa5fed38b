package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storyreel/internal/document"
	"storyreel/internal/services"
	"storyreel/internal/timeline"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <story-id> <segment-id> <time>",
		Short: "Split a segment at an absolute time (seconds)",
		Long: `Split one segment into two at the given absolute time. Both pieces must
stay at or above the half-second floor or the split is rejected without
touching the timeline. The pieces are marked pending so previously generated
media is invalidated.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			splitTime, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid split time %q", args[2])
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			storyID, segmentID := args[0], args[1]
			doc, err := store.Get(context.Background(), storyID)
			if err != nil {
				return err
			}
			segments := doc.Segments()
			updated, err := timeline.Split(segments, segmentID, splitTime)
			if err != nil {
				if services.IsValidation(err) {
					return fmt.Errorf("split rejected: %s", services.Details(err).Message)
				}
				return err
			}
			if _, err := store.SyncUpdate(context.Background(), storyID, map[string]any{
				document.FieldSegments: updated,
			}); err != nil {
				return err
			}

			fmt.Println(segmentTable(updated))
			return nil
		},
	}
	return cmd
}
