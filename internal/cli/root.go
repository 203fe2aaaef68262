// Package cli implements the havencli client commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverFlag  string
	sessionFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "havencli",
	Short: "Client for the Haven wellness companion API",
	Long:  "Talk to a running Haven backend: chat with the companion, log moods, and fetch affirmations or meditation guides.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "http://localhost:8080", "Haven server base URL")
	RootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "Reuse an existing session ID instead of creating one")
}

func newClient() *Client {
	return NewClient(serverFlag)
}

// ensureSession resolves the --session flag or creates a fresh session.
func ensureSession(ctx context.Context, client *Client) (string, error) {
	if sessionFlag != "" {
		return sessionFlag, nil
	}
	sess, err := client.CreateSession(ctx)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
