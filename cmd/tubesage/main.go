package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tubesage/tubesage/internal/cli"
	"github.com/tubesage/tubesage/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tubesage",
		Short: "Tubesage CLI - Ask questions about YouTube videos",
		Long: `Tubesage CLI processes YouTube videos into question-answering sessions
backed by the transcript and optional web enrichment.

Environment variables:
  TUBESAGE_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.ProcessCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.StatusCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.SourcesCmd())
	rootCmd.AddCommand(client.ReportCmd())
	rootCmd.AddCommand(client.DeleteCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
