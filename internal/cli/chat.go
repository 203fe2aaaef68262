package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with the companion",
		Long:  "Opens a chat loop against the server. Type /help inside the loop for local commands.",
		Run:   runChat,
	}

	RootCmd.AddCommand(cmd)
}

const chatHelp = `local commands:
  /mood <label>   log a mood manually (happy, calm, sad, stressed)
  /affirm         fetch an affirmation for the current mood
  /meditate       fetch a meditation guide for the current mood
  /summary        show the mood summary for this session
  /reset          clear the conversation and mood log
  /quit           leave the chat`

func runChat(cmd *cobra.Command, args []string) {
	client := newClient()
	ctx := cmd.Context()

	sessionID, err := ensureSession(ctx, client)
	if err != nil {
		exitErr("start session", err)
	}

	fmt.Printf("session %s (type /help for commands, /quit to leave)\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runLocalCommand(cmd, client, sessionID, line); quit {
				return
			}
			continue
		}

		reply, err := client.SendMessage(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("haven (%s)> %s\n", reply.MoodDisplay, reply.Content)
	}
}

// runLocalCommand handles slash commands inside the loop. Returns true on /quit.
func runLocalCommand(cmd *cobra.Command, client *Client, sessionID, line string) bool {
	ctx := cmd.Context()
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(chatHelp)

	case "/mood":
		if len(fields) < 2 {
			fmt.Fprintln(os.Stderr, "usage: /mood <label>")
			return false
		}
		entry, err := client.LogMood(ctx, sessionID, strings.Join(fields[1:], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		fmt.Printf("logged mood %s\n", entry.Display)

	case "/affirm":
		generated, err := client.Affirmation(ctx, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		fmt.Printf("haven (%s)> %s\n", generated.MoodDisplay, generated.Text)

	case "/meditate":
		generated, err := client.Meditation(ctx, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		fmt.Printf("haven (%s)> %s\n", generated.MoodDisplay, generated.Text)

	case "/summary":
		summary, err := client.MoodSummary(ctx, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		b, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(b))

	case "/reset":
		if err := client.Reset(ctx, sessionID); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return false
		}
		fmt.Println("session cleared")

	default:
		fmt.Fprintf(os.Stderr, "unknown command %s, try /help\n", fields[0])
	}

	return false
}
