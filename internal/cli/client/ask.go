package client

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// AskResult represents an answered question from the API.
type AskResult struct {
	Answer  string             `json:"answer"`
	Sources []SourceChunk      `json:"sources"`
	Shares  map[string]float32 `json:"source_shares"`
}

// SourceChunk is one retrieved chunk backing an answer.
type SourceChunk struct {
	SourceType string  `json:"source_type"`
	Text       string  `json:"text"`
	OriginURL  string  `json:"origin_url"`
	Score      float32 `json:"score"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask <session_id> <question>",
		Short: "Ask a question about a processed video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAsk(args[0], args[1], showSources, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "Show the retrieved chunks behind the answer")

	return cmd
}

func runAsk(sessionID, question string, showSources, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post(fmt.Sprintf("/sessions/%s/ask", sessionID), map[string]string{
		"question": question,
	})
	if err != nil {
		return fmt.Errorf("failed to ask question: %w", err)
	}

	var result AskResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(result.Answer)

	if len(result.Shares) > 0 {
		fmt.Println()
		fmt.Println("Source breakdown:")
		types := make([]string, 0, len(result.Shares))
		for t := range result.Shares {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("  %s: %.0f%%\n", t, result.Shares[t]*100)
		}
	}

	if showSources {
		fmt.Println()
		fmt.Println("--- Sources ---")
		for i, src := range result.Sources {
			fmt.Printf("[%d] [%s] (score %.3f)\n", i+1, src.SourceType, src.Score)
			if src.OriginURL != "" {
				fmt.Printf("    %s\n", src.OriginURL)
			}
			preview := src.Text
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			fmt.Printf("    %s\n", preview)
		}
	}

	return nil
}
