package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storyreel/internal/continuity"
)

func newLintCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <story-id>",
		Short: "Run the continuity lint pass over a story's segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			segments := doc.Segments()
			if len(segments) == 0 {
				return fmt.Errorf("story %s has no segments yet", args[0])
			}

			lintCfg := continuity.DefaultConfig()
			if cfg.Lint.MinWords > 0 {
				lintCfg.MinWords = cfg.Lint.MinWords
			}
			if cfg.Lint.MaxWords > 0 {
				lintCfg.MaxWords = cfg.Lint.MaxWords
			}
			report := continuity.LintAll(segments, doc.CharacterProfiles(), lintCfg)

			rows := make([][]string, 0, len(report.Flags))
			for _, flag := range report.Flags {
				rows = append(rows, []string{
					flag.SegmentID,
					string(flag.Kind),
					flag.Detail,
				})
			}
			if len(rows) > 0 {
				fmt.Println(renderTable(
					[]string{"Segment", "Kind", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				))
			}
			fmt.Printf("%d segment(s), %d flag(s), clean rate %.0f%%\n",
				len(segments), report.TotalFlags, report.CleanRate*100)
			return nil
		},
	}
	return cmd
}
