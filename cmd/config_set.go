package cmd

import (
	"strconv"
	"strings"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewConfigSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set SENSOR CONTROL=VALUE...",
		Short: "Write control values of a sensor",
		Long:  "Set controls for given SENSOR. Every value is validated before any is written.",
		Example: `  rscli config set depth exposure=5000 enable_auto_exposure=0
  rscli config set color brightness=10`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: completeFirstSensor,
		RunE: func(cmd *cobra.Command, args []string) error {
			sensor, err := device.ParseSensor(args[0])
			if err != nil {
				return err
			}
			values, err := parseControlValues(args[1:])
			if err != nil {
				return err
			}
			return withRegistry(func(r *device.Registry) error {
				if err := r.SetControlValues(sensor, values); err != nil {
					return err
				}
				names := make([]string, 0, len(values))
				for _, v := range values {
					names = append(names, v.Name)
				}
				return printControlValues(cmd, r, sensor, names, "text")
			})
		},
	}
	return cmd
}

// parseControlValues parses CONTROL=VALUE pairs in order.
func parseControlValues(pairs []string) ([]device.ControlValue, error) {
	values := make([]device.ControlValue, 0, len(pairs))
	seen := map[string]bool{}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("failed to parse control value pair: %s", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.Errorf("failed to parse control value pair: %s", pair)
		}
		if seen[name] {
			return nil, errors.Errorf("control %s given more than once", name)
		}
		seen[name] = true
		values = append(values, device.ControlValue{Name: name, Value: value})
	}
	return values, nil
}
