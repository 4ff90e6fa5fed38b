package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newPauseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause pipeline work at the next stage boundary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postControl(ctx, "pause")
		},
	}
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume paused pipeline work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postControl(ctx, "resume")
		},
	}
}

func postControl(ctx *commandContext, action string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+cfg.Paths.APIBind+"/api/control/"+action, "application/json", nil)
	if err != nil {
		return fmt.Errorf("control api unreachable (is a `storyreel run` or `storyreel serve` instance running?): %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control api returned http %d", resp.StatusCode)
	}

	var payload struct {
		Paused bool `json:"paused"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode control response: %w", err)
	}
	if payload.Paused {
		fmt.Println("pipeline paused; running stages finish, the next stage waits")
	} else {
		fmt.Println("pipeline resumed")
	}
	return nil
}
