package cmd

import (
	"fmt"
	"strconv"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

type ConfigListOptions struct {
	OutputFormat string
}

func NewConfigListCommand() *cobra.Command {
	opts := &ConfigListOptions{}

	cmd := &cobra.Command{
		Use:   "list SENSOR",
		Short: "List the controls of a sensor",
		Long:  "List SENSOR supported controls with description and possible values",
		Example: `  rscli config list depth
  rscli config list color --output json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeFirstSensor,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(opts.OutputFormat); err != nil {
				return err
			}
			sensor, err := device.ParseSensor(args[0])
			if err != nil {
				return err
			}
			return withRegistry(func(r *device.Registry) error {
				controls, err := r.ListControls(sensor)
				if err != nil {
					return err
				}
				return printControls(cmd, sensor, controls, opts.OutputFormat)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (json or text)")
	cmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	return cmd
}

func printControls(cmd *cobra.Command, sensor device.Sensor, controls []device.Option, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, controls)
	}

	fmt.Fprintf(out, "%s controls\n\n", sensor.SDKName())
	data := make([]map[string]interface{}, 0, len(controls))
	for _, o := range controls {
		data = append(data, map[string]interface{}{
			"name":        o.Name,
			"min":         formatValue(o.Min),
			"max":         formatValue(o.Max),
			"step":        formatValue(o.Step),
			"default":     formatValue(o.Default),
			"description": o.Description,
		})
	}
	util.RenderTable(out, []util.TableColumn{
		{Header: "Name", Key: "name"},
		{Header: "Min Value", Key: "min"},
		{Header: "Max Value", Key: "max"},
		{Header: "Step", Key: "step"},
		{Header: "Default Value", Key: "default"},
		{Header: "Description", Key: "description"},
	}, data)
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
