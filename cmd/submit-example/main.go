package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deborgen/deborgen/internal/cli"
	"github.com/deborgen/deborgen/internal/client"
)

func main() {
	var (
		coordinator    string
		token          string
		timeoutSeconds int64
		maxAttempts    int64
	)

	rootCmd := &cobra.Command{
		Use:   "submit-example <example>",
		Short: "Submit a built-in deborgen example job",
		Long:  "Submit a built-in deborgen example job. Examples: " + strings.Join(cli.ExampleNames(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			example := args[0]
			c := client.New(coordinator, token)

			jobID, err := cli.SubmitExample(cmd.Context(), c, example, timeoutSeconds, maxAttempts)
			if err != nil {
				return err
			}

			fmt.Printf("example=%s\n", example)
			fmt.Printf("command=%s\n", cli.ExampleCommands[example])
			fmt.Printf("submitted %s\n", jobID)

			watchCmd := fmt.Sprintf("watch-job %s --coordinator %s", jobID, coordinator)
			if token != "" {
				watchCmd += ` --token "$DEBORGEN_TOKEN"`
			}
			fmt.Printf("watch: %s\n", watchCmd)
			return nil
		},
	}

	rootCmd.Flags().StringVar(&coordinator, "coordinator", "", "Coordinator base URL")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("DEBORGEN_TOKEN"), "Bearer token (defaults to DEBORGEN_TOKEN)")
	rootCmd.Flags().Int64Var(&timeoutSeconds, "timeout-seconds", 3600, "Job timeout passed to the coordinator")
	rootCmd.Flags().Int64Var(&maxAttempts, "max-attempts", 1, "Maximum attempts passed to the coordinator")
	_ = rootCmd.MarkFlagRequired("coordinator")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
