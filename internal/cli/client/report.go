package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ReportResult is an exported source-tracking report.
type ReportResult struct {
	Report      json.RawMessage `json:"report"`
	DownloadURL string          `json:"download_url"`
}

// ReportCmd creates the report command.
func ReportCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "report <session_id>",
		Short: "Export the session's source-tracking report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(args[0], outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Write the report JSON to a file instead of stdout")

	return cmd
}

func runReport(sessionID, outputPath string) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post(fmt.Sprintf("/sessions/%s/report", sessionID), nil)
	if err != nil {
		return fmt.Errorf("failed to export report: %w", err)
	}

	var result ReportResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse report: %w", err)
	}

	var pretty json.RawMessage = result.Report
	formatted, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		formatted = result.Report
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, formatted, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", outputPath)
	} else {
		fmt.Println(string(formatted))
	}

	if result.DownloadURL != "" {
		fmt.Printf("Download URL: %s\n", result.DownloadURL)
	}

	return nil
}
