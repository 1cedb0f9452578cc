package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deborgen/deborgen/internal/cli"
	"github.com/deborgen/deborgen/internal/client"
)

func main() {
	var (
		coordinator    string
		token          string
		pollSeconds    float64
		timeoutSeconds float64
		noLogs         bool
	)

	rootCmd := &cobra.Command{
		Use:   "watch-job <job_id>",
		Short: "Poll a deborgen job until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(coordinator, token)
			return cli.WatchJob(
				cmd.Context(),
				c,
				os.Stdout,
				args[0],
				time.Duration(pollSeconds*float64(time.Second)),
				time.Duration(timeoutSeconds*float64(time.Second)),
				!noLogs,
			)
		},
	}

	rootCmd.Flags().StringVar(&coordinator, "coordinator", "", "Coordinator base URL")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("DEBORGEN_TOKEN"), "Bearer token (defaults to DEBORGEN_TOKEN)")
	rootCmd.Flags().Float64Var(&pollSeconds, "poll-seconds", 1.0, "Poll interval")
	rootCmd.Flags().Float64Var(&timeoutSeconds, "timeout-seconds", 30.0, "Give up after this long")
	rootCmd.Flags().BoolVar(&noLogs, "no-logs", false, "Skip printing logs after completion")
	_ = rootCmd.MarkFlagRequired("coordinator")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
