package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmgrader/vmgrader/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect vmgrader configuration",
}

var configExampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print the built-in example configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(config.ExampleYAML)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show <config-file>",
	Short: "Validate a configuration file and print the resolved campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("vm:          %s\n", cfg.Host.VMXPath)
		fmt.Printf("jobs dir:    %s\n", cfg.JobsDir())
		fmt.Printf("scripts dir: %s\n", cfg.ScriptsDir())
		fmt.Printf("guest:       %s via %s, shell %s\n", cfg.Guest.Username, cfg.Guest.Transport, cfg.Guest.Shell)
		fmt.Printf("guest root:  %s\n", cfg.Guest.RootPath.NativeStyle)
		fmt.Printf("kernel log:  %v\n", cfg.KmEnable)
		for i, t := range cfg.Tests {
			fmt.Printf("stage %d:     scripts=%v inputs=%v outputs=%v timeout=%ds\n",
				i, t.Script, t.Input, t.Output, t.Timeout)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configExampleCmd)
	configCmd.AddCommand(configShowCmd)
}
