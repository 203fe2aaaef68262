package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "selfcare [id]",
		Short: "Show self-care content",
		Long:  "Without arguments lists all items; with an ID prints that item's full text.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runSelfcare,
	}

	RootCmd.AddCommand(cmd)
}

func runSelfcare(cmd *cobra.Command, args []string) {
	client := newClient()

	if len(args) == 1 {
		item, err := client.SelfcareItem(cmd.Context(), args[0])
		if err != nil {
			exitErr("selfcare", err)
		}
		fmt.Printf("%s\n\n%s\n", item.Title, item.Body)
		return
	}

	items, err := client.SelfcareList(cmd.Context())
	if err != nil {
		exitErr("selfcare", err)
	}
	for _, item := range items {
		fmt.Printf("%-16s%s (%s)\n", item.ID, item.Title, item.Kind)
	}
}
