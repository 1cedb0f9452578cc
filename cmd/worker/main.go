package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deborgen/deborgen/internal/labels"
	"github.com/deborgen/deborgen/internal/worker"
)

func main() {
	var (
		coordinator      string
		nodeID           string
		name             string
		labelsJSON       string
		token            string
		pollSeconds      float64
		heartbeatSeconds float64
		workDir          string
	)

	rootCmd := &cobra.Command{
		Use:   "worker",
		Short: "deborgen worker agent: polls the coordinator and executes jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			nodeLabels, err := labels.Parse(labelsJSON)
			if err != nil {
				return fmt.Errorf("--labels-json: %w", err)
			}

			cfg := &worker.Config{
				Coordinator:       coordinator,
				NodeID:            nodeID,
				Name:              name,
				Labels:            nodeLabels,
				Token:             token,
				PollInterval:      time.Duration(pollSeconds * float64(time.Second)),
				HeartbeatInterval: time.Duration(heartbeatSeconds * float64(time.Second)),
				WorkDir:           workDir,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := worker.New(cfg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&coordinator, "coordinator", "", "Coordinator base URL")
	rootCmd.Flags().StringVar(&nodeID, "node-id", "", "Worker node ID")
	rootCmd.Flags().StringVar(&name, "name", "", "Optional human-readable node name")
	rootCmd.Flags().StringVar(&labelsJSON, "labels-json", "{}", `Node labels as a JSON object, e.g. '{"gpu":"rtx3060","cpu_cores":12}'`)
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("DEBORGEN_TOKEN"), "Bearer token (defaults to DEBORGEN_TOKEN)")
	rootCmd.Flags().Float64Var(&pollSeconds, "poll-seconds", 2.0, "Poll interval when the queue is empty")
	rootCmd.Flags().Float64Var(&heartbeatSeconds, "heartbeat-seconds", 15.0, "Heartbeat interval")
	rootCmd.Flags().StringVar(&workDir, "work-dir", "", "Optional working directory for executed jobs")
	_ = rootCmd.MarkFlagRequired("coordinator")
	_ = rootCmd.MarkFlagRequired("node-id")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
