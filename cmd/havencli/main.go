package main

import (
	"os"

	"github.com/havenlabs/haven/backend/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
