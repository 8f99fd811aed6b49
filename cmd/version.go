package cmd

import (
	"fmt"
	"strings"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/version"
	"github.com/spf13/cobra"
)

type VersionOptions struct {
	OutputFormat string
}

func NewVersionCommand() *cobra.Command {
	opts := &VersionOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(opts.OutputFormat); err != nil {
				return err
			}
			info := version.ClientInfo(device.Drivers())
			out := cmd.OutOrStdout()
			if opts.OutputFormat == "json" {
				return printJSON(out, info)
			}
			fmt.Fprintf(out, "Version:     %s\n", info.Version)
			fmt.Fprintf(out, "Git commit:  %s\n", info.GitCommit)
			fmt.Fprintf(out, "Built:       %s\n", info.FormattedTime)
			fmt.Fprintf(out, "Go version:  %s\n", info.GoVersion)
			fmt.Fprintf(out, "OS/Arch:     %s/%s\n", info.OS, info.Arch)
			fmt.Fprintf(out, "Drivers:     %s\n", strings.Join(info.Drivers, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (json or text)")
	cmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	return cmd
}
