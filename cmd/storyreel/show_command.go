package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <story-id>",
		Short: "Show a story's canonical document",
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

			if asJSON {
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")
				return encoder.Encode(doc)
			}

			fmt.Printf("story:   %s\n", doc.StoryID)
			fmt.Printf("title:   %s\n", doc.Title())
			fmt.Printf("source:  %s\n", doc.SourcePath())
			fmt.Printf("updated: %s\n", doc.UpdatedAt().Format("2006-01-02 15:04:05"))
			fmt.Printf("assets:  %d\n", len(doc.Assets()))
			segments := doc.Segments()
			fmt.Printf("segments: %d\n", len(segments))
			if len(segments) > 0 {
				fmt.Println()
				fmt.Println(segmentTable(segments))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full document as JSON")
	return cmd
}
