// Package main is the entry point for vmgrader.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/vmgrader/vmgrader/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrCampaignFailed) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
