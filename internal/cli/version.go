package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmgrader/vmgrader/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vmgrader version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vmgrader %s\n", version.Version)
	},
}
