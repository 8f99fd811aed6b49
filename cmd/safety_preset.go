package cmd

import (
	"fmt"
	"io"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/safety"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

type SafetyPresetPrintOptions struct {
	Raw    bool
	Export string
}

func NewSafetyPresetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Safety preset options",
	}

	cmd.AddCommand(NewSafetyPresetPrintCommand())
	cmd.AddCommand(NewSafetyPresetExportCommand())
	cmd.AddCommand(NewSafetyPresetImportCommand())
	return cmd
}

func NewSafetyPresetPrintCommand() *cobra.Command {
	opts := &SafetyPresetPrintOptions{}

	cmd := &cobra.Command{
		Use:   "print INDEX",
		Short: "Print a safety preset",
		Example: `  rscli safety preset print 0
  rscli safety preset print 1 --raw
  rscli safety preset print 1 --export preset1.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePresetIndex(args[0])
			if err != nil {
				return err
			}
			return withSafety(func(sd device.SafetyDevice) error {
				preset, err := sd.SafetyPreset(index)
				if err != nil {
					return err
				}
				data, err := preset.ToJSON()
				if err != nil {
					return err
				}
				if opts.Raw {
					fmt.Fprint(cmd.OutOrStdout(), string(data))
				} else {
					printPreset(cmd.OutOrStdout(), index, preset)
				}
				if opts.Export != "" {
					return writeJSONFile(opts.Export, data)
				}
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.Raw, "raw", false, "Print the preset as JSON")
	flags.StringVar(&opts.Export, "export", "", "Also export the preset to a JSON file")
	return cmd
}

func NewSafetyPresetExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "export INDEX FILE",
		Short:   "Export a safety preset to a JSON file",
		Example: `  rscli safety preset export 0 preset0.json`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePresetIndex(args[0])
			if err != nil {
				return err
			}
			return withSafety(func(sd device.SafetyDevice) error {
				preset, err := sd.SafetyPreset(index)
				if err != nil {
					return err
				}
				data, err := preset.ToJSON()
				if err != nil {
					return err
				}
				return writeJSONFile(args[1], data)
			})
		},
	}
}

func NewSafetyPresetImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "import INDEX FILE",
		Short:   "Import a safety preset from a JSON file",
		Example: `  rscli safety preset import 1 preset1.json`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parsePresetIndex(args[0])
			if err != nil {
				return err
			}
			data, err := readFile(args[1])
			if err != nil {
				return err
			}
			preset, err := safety.PresetFromJSON(data)
			if err != nil {
				return err
			}
			return withSafety(func(sd device.SafetyDevice) error {
				if err := inServiceMode(sd, func() error { return sd.SetSafetyPreset(index, preset) }); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Safety preset %d imported from %s\n", index, args[1])
				return nil
			})
		},
	}
}

func printPreset(out io.Writer, index int, p *safety.Preset) {
	fmt.Fprintf(out, "Safety preset %d\n\n", index)

	pl := p.Platform
	fmt.Fprintf(out, "Robot height:  %g m\n", pl.RobotHeight)
	fmt.Fprintf(out, "Translation:   [%g %g %g]\n", pl.Translation[0], pl.Translation[1], pl.Translation[2])
	fmt.Fprintln(out, "Rotation:")
	for _, row := range pl.Rotation {
		fmt.Fprintf(out, "  [%g %g %g]\n", row[0], row[1], row[2])
	}

	env := p.Environment
	fmt.Fprintf(out, "Trigger duration:     %g s\n", env.SafetyTriggerDuration)
	fmt.Fprintf(out, "Min floor clearance:  %g m\n", env.MinFloorClearance)
	fmt.Fprintf(out, "Surface height:       %g m\n", env.SurfaceHeight)
	fmt.Fprintf(out, "Surface inclination:  %g deg\n\n", env.SurfaceInclination)

	data := make([]map[string]interface{}, 0, len(p.Zones))
	for _, z := range p.Zones {
		row := map[string]interface{}{"type": string(z.Type)}
		for i, pt := range z.Points {
			row[fmt.Sprintf("p%d", i)] = fmt.Sprintf("(%g, %g)", pt.X, pt.Y)
		}
		data = append(data, row)
	}
	util.RenderTable(out, []util.TableColumn{
		{Header: "Zone", Key: "type"},
		{Header: "P0", Key: "p0"},
		{Header: "P1", Key: "p1"},
		{Header: "P2", Key: "p2"},
		{Header: "P3", Key: "p3"},
	}, data)
}
