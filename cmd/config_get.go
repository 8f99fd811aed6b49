package cmd

import (
	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

type ConfigGetOptions struct {
	All          bool
	OutputFormat string
}

func NewConfigGetCommand() *cobra.Command {
	opts := &ConfigGetOptions{}

	cmd := &cobra.Command{
		Use:   "get SENSOR [CONTROLS...]",
		Short: "Read control values of a sensor",
		Long:  "Get control values for given SENSOR, or all controls if '--all' is used",
		Example: `  rscli config get depth exposure enable_auto_exposure
  rscli config get color --all`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeFirstSensor,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(opts.OutputFormat); err != nil {
				return err
			}
			sensor, err := device.ParseSensor(args[0])
			if err != nil {
				return err
			}
			controls := args[1:]
			if opts.All {
				controls = nil
			}
			return withRegistry(func(r *device.Registry) error {
				return printControlValues(cmd, r, sensor, controls, opts.OutputFormat)
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.All, "all", false, "Query all supported controls")
	flags.StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (json or text)")
	cmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	return cmd
}

// printControlValues reads and prints the named controls. No names reads every
// writable control.
func printControlValues(cmd *cobra.Command, r *device.Registry, sensor device.Sensor, controls []string, format string) error {
	values, err := r.GetControlValues(sensor, controls)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, values)
	}
	data := make([]map[string]interface{}, 0, len(values))
	for _, v := range values {
		data = append(data, map[string]interface{}{
			"name":  v.Name,
			"value": formatValue(v.Value),
		})
	}
	util.RenderTable(out, []util.TableColumn{
		{Header: "Name", Key: "name"},
		{Header: "Value", Key: "value"},
	}, data)
	return nil
}
