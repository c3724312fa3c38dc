// Package cli provides the command-line interface for vmgrader.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vmgrader",
	Short: "vmgrader - automated grading campaigns in a virtual machine",
	Long: `vmgrader drives one virtual machine through a grading campaign:
revert to the clean snapshot, log into the guest, then run each test
stage in order - copy inputs and scripts in, execute them with a
bounded wait, and collect the declared outputs back out. The campaign
aborts on the first failed stage.

The virtualization layer is reached through the VMware vmrun tool;
guests without tooling can be driven over SSH instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
