package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tubesage/tubesage/internal/cli"
	"github.com/tubesage/tubesage/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tubesaged",
		Short: "Tubesage daemon",
		Long:  "Tubesage daemon for running the video question-answering API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
