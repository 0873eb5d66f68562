package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// StatusCmd creates the status command.
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status <session_id>",
		Short:   "Show a session's state and index summary",
		Aliases: []string{"get"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStatus(args[0], outputJSON)
		},
	}

	return cmd
}

func runStatus(sessionID string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/sessions/%s", sessionID))
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
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
	fmt.Printf("Questions asked: %d\n", session.QuestionsAsked)
	fmt.Printf("Last active: %s\n", session.LastActiveAt)
	return nil
}
