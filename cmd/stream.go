package cmd

import (
	"github.com/spf13/cobra"
)

func NewStreamCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "List and play streams",
		Long:  "List the stream profiles a device supports and play them with a live view",
	}

	cmd.AddCommand(NewStreamListCommand())
	cmd.AddCommand(NewStreamPlayCommand())
	return cmd
}
