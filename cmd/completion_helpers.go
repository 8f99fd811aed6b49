package cmd

import (
	"strings"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

func completeOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"json", "text"}, cobra.ShellCompDirectiveNoFileComp
}

func completeDrivers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return device.Drivers(), cobra.ShellCompDirectiveNoFileComp
}

// completeSerials offers the serial numbers of the connected devices.
func completeSerials(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	registry, err := openRegistry()
	if err != nil {
		util.GetLogger().Debug("Serial completion failed", "error", err)
		return nil, cobra.ShellCompDirectiveError
	}
	defer registry.Close()

	var serials []string
	for _, info := range registry.QueryDevices() {
		if strings.HasPrefix(info.Serial, toComplete) {
			serials = append(serials, info.Serial+"\t"+info.Name)
		}
	}
	return serials, cobra.ShellCompDirectiveNoFileComp
}

// completeSensors offers sensor names for every positional argument.
func completeSensors(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(device.SensorNames(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeFirstSensor offers sensor names for the first argument only.
func completeFirstSensor(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeSensors(cmd, args, toComplete)
}

// completeStreams offers stream names as the start of a profile literal.
func completeStreams(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if strings.Contains(toComplete, "-") {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(stream.Names(), toComplete), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func filterPrefix(values []string, prefix string) []string {
	var out []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}
