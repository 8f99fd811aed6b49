package cmd

import (
	"os"
	"strconv"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/safety"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func NewSafetyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "safety",
		Short: "Manage safety camera configuration",
		Long:  "Print, export and import the presets and interface configuration of a safety camera",
	}

	cmd.AddCommand(NewSafetyPresetCommand())
	cmd.AddCommand(NewSafetyInterfaceCommand())
	return cmd
}

// withSafety runs fn against the safety interface of the active device.
func withSafety(fn func(sd device.SafetyDevice) error) error {
	return withRegistry(func(r *device.Registry) error {
		sd, err := r.Safety()
		if err != nil {
			return err
		}
		return fn(sd)
	})
}

// inServiceMode runs write inside service mode. Service mode is left even when the
// write fails.
func inServiceMode(sd device.SafetyDevice, write func() error) (err error) {
	if err := sd.EnterServiceMode(); err != nil {
		return errors.Wrap(err, "failed to enter service mode")
	}
	util.GetLogger().Debug("Entered safety service mode")
	defer func() {
		if exitErr := sd.ExitServiceMode(); exitErr != nil {
			if err == nil {
				err = errors.Wrap(exitErr, "failed to exit service mode")
				return
			}
			util.GetLogger().Warn("Failed to exit service mode", "error", exitErr)
		}
	}()
	return write()
}

func parsePresetIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Errorf("invalid preset index %q", arg)
	}
	if err := safety.ValidatePresetIndex(index); err != nil {
		return 0, err
	}
	return index, nil
}

func writeJSONFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return data, nil
}
