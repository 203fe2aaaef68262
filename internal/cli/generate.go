package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	affirmCmd := &cobra.Command{
		Use:   "affirm",
		Short: "Fetch a one-shot affirmation",
		Run:   runAffirm,
	}
	meditateCmd := &cobra.Command{
		Use:   "meditate",
		Short: "Fetch a one-shot meditation guide",
		Run:   runMeditate,
	}

	RootCmd.AddCommand(affirmCmd)
	RootCmd.AddCommand(meditateCmd)
}

func runAffirm(cmd *cobra.Command, args []string) {
	client := newClient()
	sessionID, err := ensureSession(cmd.Context(), client)
	if err != nil {
		exitErr("start session", err)
	}

	generated, err := client.Affirmation(cmd.Context(), sessionID)
	if err != nil {
		exitErr("affirm", err)
	}
	fmt.Println(generated.Text)
}

func runMeditate(cmd *cobra.Command, args []string) {
	client := newClient()
	sessionID, err := ensureSession(cmd.Context(), client)
	if err != nil {
		exitErr("start session", err)
	}

	generated, err := client.Meditation(cmd.Context(), sessionID)
	if err != nil {
		exitErr("meditate", err)
	}
	fmt.Println(generated.Text)
}
