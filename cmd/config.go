package cmd

import (
	"github.com/spf13/cobra"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure sensor controls",
		Long:  "List, read and write the controls of a sensor on the active device",
	}

	cmd.AddCommand(NewConfigListCommand())
	cmd.AddCommand(NewConfigGetCommand())
	cmd.AddCommand(NewConfigSetCommand())
	return cmd
}
