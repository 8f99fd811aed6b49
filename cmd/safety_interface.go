package cmd

import (
	"fmt"
	"io"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/safety"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

func NewSafetyInterfaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interface",
		Short: "Safety interface configuration options",
	}

	cmd.AddCommand(NewSafetyInterfacePrintCommand())
	cmd.AddCommand(NewSafetyInterfaceExportCommand())
	cmd.AddCommand(NewSafetyInterfaceImportCommand())
	return cmd
}

func NewSafetyInterfacePrintCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the safety interface configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSafety(func(sd device.SafetyDevice) error {
				cfg, err := sd.SafetyInterface()
				if err != nil {
					return err
				}
				if raw {
					data, err := cfg.ToJSON()
					if err != nil {
						return err
					}
					fmt.Fprint(cmd.OutOrStdout(), string(data))
					return nil
				}
				printInterface(cmd.OutOrStdout(), cfg)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the configuration as JSON")
	return cmd
}

func NewSafetyInterfaceExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "export FILE",
		Short:   "Export the safety interface configuration to a JSON file",
		Example: `  rscli safety interface export interface.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSafety(func(sd device.SafetyDevice) error {
				cfg, err := sd.SafetyInterface()
				if err != nil {
					return err
				}
				data, err := cfg.ToJSON()
				if err != nil {
					return err
				}
				return writeJSONFile(args[0], data)
			})
		},
	}
}

func NewSafetyInterfaceImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "import FILE",
		Short:   "Import the safety interface configuration from a JSON file",
		Example: `  rscli safety interface import interface.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(args[0])
			if err != nil {
				return err
			}
			cfg, err := safety.InterfaceFromJSON(data)
			if err != nil {
				return err
			}
			return withSafety(func(sd device.SafetyDevice) error {
				if err := inServiceMode(sd, func() error { return sd.SetSafetyInterface(cfg) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Safety interface configuration imported from %s\n", args[0])
				return nil
			})
		},
	}
}

func printInterface(out io.Writer, cfg *safety.InterfaceConfig) {
	fmt.Fprintf(out, "GPIO stabilization:      %d ms\n", cfg.GPIOStabilizationMs)
	fmt.Fprintf(out, "Zone selection overlap:  %d ms\n\n", cfg.ZoneSelectionOverlapMs)

	data := make([]map[string]interface{}, 0, len(cfg.Pins))
	for _, p := range cfg.Pins {
		data = append(data, map[string]interface{}{
			"pin":       p.Pin,
			"direction": string(p.Direction),
			"function":  p.Function,
		})
	}
	util.RenderTable(out, []util.TableColumn{
		{Header: "Pin", Key: "pin"},
		{Header: "Direction", Key: "direction"},
		{Header: "Function", Key: "function"},
	}, data)
}
