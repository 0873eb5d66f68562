package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Session represents a processed video session from the API.
type Session struct {
	ID             string         `json:"id"`
	VideoID        string         `json:"video_id"`
	VideoURL       string         `json:"video_url"`
	VideoTitle     string         `json:"video_title"`
	Status         string         `json:"status"`
	Language       string         `json:"language"`
	Topics         []string       `json:"topics"`
	Strategies     []string       `json:"strategies"`
	ChunkCounts    map[string]int `json:"chunk_counts"`
	QuestionsAsked int            `json:"questions_asked"`
	CreatedAt      string         `json:"created_at"`
	LastActiveAt   string         `json:"last_active_at"`
}

// ProcessCmd creates the process command.
func ProcessCmd() *cobra.Command {
	var preset string
	var strategies []string
	var maxResults int
	var sessionID string

	cmd := &cobra.Command{
		Use:   "process <video_url>",
		Short: "Process a YouTube video into a question-answering session",
		Long:  "Fetches the video transcript, runs web enrichment, and builds the session index.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runProcess(args[0], preset, strategies, maxResults, sessionID, outputJSON)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Enrichment preset (transcript-only, minimal, balanced, comprehensive, academic)")
	cmd.Flags().StringSliceVar(&strategies, "strategy", nil, "Explicit enrichment strategies (background, discussions, academic, current)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Max search results per strategy")
	cmd.Flags().StringVar(&sessionID, "session", "", "Reprocess an existing session in place")

	return cmd
}

func runProcess(url, preset string, strategies []string, maxResults int, sessionID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	body := map[string]interface{}{"url": url}
	if preset != "" {
		body["preset"] = preset
	}
	if len(strategies) > 0 {
		body["strategies"] = strategies
	}
	if maxResults > 0 {
		body["max_results"] = maxResults
	}
	if sessionID != "" {
		body["session_id"] = sessionID
	}

	resp, err := api.Post("/sessions", body)
	if err != nil {
		return fmt.Errorf("failed to process video: %w", err)
	}

	var session Session
	if err := json.Unmarshal(resp.Data, &session); err != nil {
		return fmt.Errorf("failed to parse session: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(session, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printSession(&session)
	fmt.Println()
	fmt.Printf("Ask questions with: tubesage ask %s \"<question>\"\n", session.ID)
	return nil
}

func printSession(s *Session) {
	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("Title: %s\n", s.VideoTitle)
	fmt.Printf("Video: %s\n", s.VideoURL)
	fmt.Printf("Status: %s\n", s.Status)
	if s.Language != "" {
		fmt.Printf("Transcript language: %s\n", s.Language)
	}
	if len(s.Topics) > 0 {
		fmt.Printf("Topics: %s\n", strings.Join(s.Topics, ", "))
	}
	if len(s.Strategies) > 0 {
		fmt.Printf("Enrichment: %s\n", strings.Join(s.Strategies, ", "))
	} else {
		fmt.Println("Enrichment: transcript only")
	}
	if len(s.ChunkCounts) > 0 {
		total := 0
		for _, n := range s.ChunkCounts {
			total += n
		}
		fmt.Printf("Indexed chunks: %d\n", total)
	}
}
