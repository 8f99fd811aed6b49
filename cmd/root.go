package cmd

import (
	"fmt"

	"github.com/babelcloud/rscli/config"
	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/babelcloud/rscli/internal/version"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the rscli command tree.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "rscli",
		Short: "RealSense camera CLI",
		Long:  `rscli lists connected depth cameras, configures sensor controls, streams live data and inspects recordings.`,
		// errors are printed once by main
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.InitLogger(verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flag("version").Changed {
				info := version.ClientInfo(device.Drivers())
				fmt.Fprintf(cmd.OutOrStdout(), "rscli version %s, build %s\n", info.Version, info.GitCommit)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Print version information and exit")

	flags := rootCmd.PersistentFlags()
	flags.String("serial", "", "Serial number of the device to use (default: first device)")
	flags.String("driver", "", "Camera driver: realsense or mock")
	flags.String("fixtures", "", "Fixture file for the mock driver (.yaml, .toml or .json)")
	flags.BoolVar(&verbose, "verbose", false, "Enable debug logging")

	config.BindFlag(config.KeySerial, flags.Lookup("serial"))
	config.BindFlag(config.KeyDriver, flags.Lookup("driver"))
	config.BindFlag(config.KeyFixtures, flags.Lookup("fixtures"))

	rootCmd.RegisterFlagCompletionFunc("serial", completeSerials)
	rootCmd.RegisterFlagCompletionFunc("driver", completeDrivers)

	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewStreamCommand())
	rootCmd.AddCommand(NewSafetyCommand())
	rootCmd.AddCommand(NewBagCommand())
	rootCmd.AddCommand(NewVersionCommand())

	// Enable custom help output ordering
	setupHelpCommand(rootCmd)
	return rootCmd
}

// Execute runs the command line.
func Execute() error {
	return NewRootCommand().Execute()
}
