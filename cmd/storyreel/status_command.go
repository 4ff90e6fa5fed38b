package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type taskView struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Status   string     `json:"status"`
	Message  string     `json:"message"`
	Progress *float64   `json:"progress"`
	Children []taskView `json:"children"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [story-id]",
		Short: "Show the live progress tree from a running serve instance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get("http://" + cfg.Paths.APIBind + "/api/tasks")
			if err != nil {
				return fmt.Errorf("status api unreachable (is a `storyreel run` or `storyreel serve` instance running?): %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status api returned http %d", resp.StatusCode)
			}

			var payload struct {
				Tasks []taskView `json:"tasks"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return fmt.Errorf("decode status response: %w", err)
			}

			var filter string
			if len(args) == 1 {
				filter = args[0]
			}

			var rows [][]string
			for _, root := range payload.Tasks {
				if filter != "" && !strings.HasPrefix(root.ID, filter) {
					continue
				}
				rows = appendTaskRows(rows, root, 0)
			}
			if len(rows) == 0 {
				fmt.Println("no tasks")
				return nil
			}
			fmt.Println(renderTable(
				[]string{"Task", "Status", "Progress", "Message"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	return cmd
}

func appendTaskRows(rows [][]string, task taskView, depth int) [][]string {
	progress := ""
	if task.Progress != nil {
		progress = fmt.Sprintf("%.0f%%", *task.Progress)
	}
	rows = append(rows, []string{
		strings.Repeat("  ", depth) + task.Name,
		task.Status,
		progress,
		task.Message,
	})
	for _, child := range task.Children {
		rows = appendTaskRows(rows, child, depth+1)
	}
	return rows
}
