package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deborgen/deborgen/internal/client"
)

func main() {
	var (
		coordinator string
		token       string
		showLogs    bool
	)

	rootCmd := &cobra.Command{
		Use:   "get-job <job_id>",
		Short: "Show one deborgen job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(coordinator, token)

			job, err := c.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJob(job)

			if showLogs {
				logs, err := c.ReadLogs(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				fmt.Println()
				fmt.Println("logs:")
				if logs != "" {
					fmt.Print(logs)
					if !strings.HasSuffix(logs, "\n") {
						fmt.Println()
					}
				}
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&coordinator, "coordinator", "", "Coordinator base URL")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("DEBORGEN_TOKEN"), "Bearer token (defaults to DEBORGEN_TOKEN)")
	rootCmd.Flags().BoolVar(&showLogs, "logs", false, "Also print the job's logs")
	_ = rootCmd.MarkFlagRequired("coordinator")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// printJob writes one field per line in a fixed order.
func printJob(job *client.Job) {
	fmt.Printf("id: %s\n", job.ID)
	fmt.Printf("status: %s\n", job.Status)
	fmt.Printf("command: %s\n", job.Command)
	fmt.Printf("assigned_node_id: %s\n", formatString(job.AssignedNodeID))
	fmt.Printf("created_at: %s\n", job.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Printf("started_at: %s\n", formatTime(job.StartedAt))
	fmt.Printf("finished_at: %s\n", formatTime(job.FinishedAt))
	fmt.Printf("timeout_seconds: %d\n", job.TimeoutSeconds)
	fmt.Printf("attempts: %d\n", job.Attempts)
	fmt.Printf("max_attempts: %d\n", job.MaxAttempts)
	fmt.Printf("exit_code: %s\n", formatInt(job.ExitCode))
	fmt.Printf("failure_reason: %s\n", formatString(job.FailureReason))
	fmt.Printf("artifact_urls: %s\n", formatList(job.ArtifactURLs))
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func formatInt(n *int64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
