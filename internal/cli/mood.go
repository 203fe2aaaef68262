package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	moodCmd := &cobra.Command{
		Use:   "mood",
		Short: "Log or inspect session moods",
	}

	logCmd := &cobra.Command{
		Use:   "log <label>",
		Short: "Log a mood manually",
		Long:  "Log a mood for the session. Accepts bare labels (happy) or display forms (😄 Happy).",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMoodLog,
	}

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show mood counts for the session",
		Run:   runMoodSummary,
	}

	moodCmd.AddCommand(logCmd)
	moodCmd.AddCommand(summaryCmd)
	RootCmd.AddCommand(moodCmd)
}

func runMoodLog(cmd *cobra.Command, args []string) {
	if sessionFlag == "" {
		exitErr("mood log", fmt.Errorf("--session is required"))
	}

	client := newClient()
	entry, err := client.LogMood(cmd.Context(), sessionFlag, strings.Join(args, " "))
	if err != nil {
		exitErr("mood log", err)
	}

	b, _ := json.Marshal(entry)
	fmt.Println(string(b))
}

func runMoodSummary(cmd *cobra.Command, args []string) {
	if sessionFlag == "" {
		exitErr("mood summary", fmt.Errorf("--session is required"))
	}

	client := newClient()
	summary, err := client.MoodSummary(cmd.Context(), sessionFlag)
	if err != nil {
		exitErr("mood summary", err)
	}

	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
}
