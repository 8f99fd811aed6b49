package cmd

import (
	"fmt"
	"strings"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

type ListOptions struct {
	OutputFormat string
}

func NewListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connected devices",
		Long:  "List connected devices with name, serial number, firmware, connection type and sensors",
		Example: `  rscli list
  rscli list --output json
  rscli list --driver mock --fixtures cameras.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(opts.OutputFormat); err != nil {
				return err
			}
			return withRegistry(func(r *device.Registry) error {
				return printDevices(cmd, r.QueryDevices(), opts.OutputFormat)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (json or text)")
	cmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	return cmd
}

func printDevices(cmd *cobra.Command, devices []device.DeviceInfo, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, devices)
	}
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices connected")
		return nil
	}

	data := make([]map[string]interface{}, 0, len(devices))
	for _, d := range devices {
		data = append(data, map[string]interface{}{
			"name":       d.Name,
			"serial":     d.Serial,
			"firmware":   d.Firmware,
			"connection": d.Connection,
			"sensors":    strings.Join(d.Sensors, ", "),
		})
	}
	util.RenderTable(out, []util.TableColumn{
		{Header: "Name", Key: "name"},
		{Header: "Serial", Key: "serial"},
		{Header: "Firmware", Key: "firmware"},
		{Header: "USB Connection", Key: "connection"},
		{Header: "Sensors", Key: "sensors"},
	}, data)
	return nil
}
