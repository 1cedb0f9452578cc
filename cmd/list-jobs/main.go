package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deborgen/deborgen/internal/client"
)

func formatJob(job *client.Job) string {
	node := "unassigned"
	if job.AssignedNodeID != nil {
		node = *job.AssignedNodeID
	}
	return fmt.Sprintf("%s status=%s node=%s attempts=%d/%d command=%s",
		job.ID, job.Status, node, job.Attempts, job.MaxAttempts, job.Command)
}

func main() {
	var (
		coordinator string
		token       string
		status      string
		limit       int64
	)

	rootCmd := &cobra.Command{
		Use:   "list-jobs",
		Short: "List recent deborgen jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.New(coordinator, token)

			jobs, err := c.ListJobs(cmd.Context(), status, limit)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Println("no jobs found")
				return nil
			}
			for i := range jobs {
				fmt.Println(formatJob(&jobs[i]))
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&coordinator, "coordinator", "", "Coordinator base URL")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("DEBORGEN_TOKEN"), "Bearer token (defaults to DEBORGEN_TOKEN)")
	rootCmd.Flags().StringVar(&status, "status", "", "Filter by status (queued, running, succeeded, failed)")
	rootCmd.Flags().Int64Var(&limit, "limit", 10, "Maximum number of jobs to list")
	_ = rootCmd.MarkFlagRequired("coordinator")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
