package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ChatTurn is one question and answer from the session history.
type ChatTurn struct {
	Question    string   `json:"question"`
	Answer      string   `json:"answer"`
	UsedSources []string `json:"used_sources"`
	AskedAt     string   `json:"asked_at"`
}

// HistoryPage is one page of chat history.
type HistoryPage struct {
	Items   []ChatTurn `json:"items"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"has_more"`
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var cursor string
	var limit int

	cmd := &cobra.Command{
		Use:   "history <session_id>",
		Short: "Show the session's question and answer history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runHistory(args[0], cursor, limit, outputJSON)
		},
	}

	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from a previous page")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum turns per page")

	return cmd
}

func runHistory(sessionID, cursor string, limit int, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/sessions/%s/history?limit=%d", sessionID, limit)
	if cursor != "" {
		path += "&cursor=" + cursor
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	var page HistoryPage
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		return fmt.Errorf("failed to parse history: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(page, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(page.Items) == 0 {
		fmt.Println("No questions asked yet.")
		return nil
	}

	for i, turn := range page.Items {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("Q: %s\n", turn.Question)
		fmt.Printf("A: %s\n", turn.Answer)
		if len(turn.UsedSources) > 0 {
			fmt.Printf("   sources: %s\n", strings.Join(turn.UsedSources, ", "))
		}
	}

	if page.HasMore {
		fmt.Println()
		fmt.Printf("More turns available. Next page: --cursor %s\n", page.Cursor)
	}

	return nil
}
