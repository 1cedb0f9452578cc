package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deborgen/deborgen/internal/cli"
	"github.com/deborgen/deborgen/internal/client"
)

// defaultSequence is the onboarding order; the remaining examples stay
// available through submit-example.
var defaultSequence = []string{"hello", "primes"}

func main() {
	var (
		coordinator    string
		token          string
		pollSeconds    float64
		timeoutSeconds float64
	)

	rootCmd := &cobra.Command{
		Use:   "tutorial",
		Short: "Run the deborgen onboarding tutorial sequence",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.New(coordinator, token)
			pollInterval := time.Duration(pollSeconds * float64(time.Second))
			watchTimeout := time.Duration(timeoutSeconds * float64(time.Second))

			fmt.Println("starting deborgen tutorial")
			for _, example := range defaultSequence {
				fmt.Println()
				fmt.Printf("submitting example=%s\n", example)
				fmt.Printf("command=%s\n", cli.ExampleCommands[example])

				jobID, err := cli.SubmitExample(cmd.Context(), c, example, int64(timeoutSeconds), 1)
				if err != nil {
					return err
				}
				fmt.Printf("submitted %s\n", jobID)

				if err := cli.WatchJob(cmd.Context(), c, os.Stdout, jobID, pollInterval, watchTimeout, true); err != nil {
					return err
				}
			}

			fmt.Println()
			fmt.Println("tutorial complete")
			return nil
		},
	}

	rootCmd.Flags().StringVar(&coordinator, "coordinator", "", "Coordinator base URL")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("DEBORGEN_TOKEN"), "Bearer token (defaults to DEBORGEN_TOKEN)")
	rootCmd.Flags().Float64Var(&pollSeconds, "poll-seconds", 1.0, "Polling interval while waiting for completion")
	rootCmd.Flags().Float64Var(&timeoutSeconds, "timeout-seconds", 60.0, "Per-job timeout while waiting for completion")
	_ = rootCmd.MarkFlagRequired("coordinator")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
