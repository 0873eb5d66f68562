package client

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// SourceSummary is the per-session source contribution summary.
type SourceSummary struct {
	TotalSources  int                  `json:"total_sources"`
	UsedSources   int                  `json:"used_sources"`
	SourcesByType map[string]int       `json:"sources_by_type"`
	Sources       []SourceContribution `json:"sources"`
}

// SourceContribution is one tracked piece of source text.
type SourceContribution struct {
	SourceType string  `json:"source_type"`
	Preview    string  `json:"content_preview"`
	Relevance  float32 `json:"relevance_score"`
	Used       bool    `json:"used_in_context"`
	AddedAt    string  `json:"timestamp"`
}

// SourcesCmd creates the sources command.
func SourcesCmd() *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "sources <session_id>",
		Short: "Show which sources contributed to the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSources(args[0], showAll, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&showAll, "all", false, "List every tracked source, not just the summary")

	return cmd
}

func runSources(sessionID string, showAll, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/sessions/%s/sources", sessionID))
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}

	var summary SourceSummary
	if err := json.Unmarshal(resp.Data, &summary); err != nil {
		return fmt.Errorf("failed to parse sources: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Total sources: %d (%d used in answers)\n", summary.TotalSources, summary.UsedSources)

	types := make([]string, 0, len(summary.SourcesByType))
	for t := range summary.SourcesByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %s: %d\n", t, summary.SourcesByType[t])
	}

	if showAll {
		fmt.Println()
		for _, src := range summary.Sources {
			marker := " "
			if src.Used {
				marker = "*"
			}
			fmt.Printf("%s [%s] %s\n", marker, src.SourceType, src.Preview)
		}
	}

	return nil
}
