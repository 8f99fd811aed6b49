package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/babelcloud/rscli/internal/device"
	"github.com/babelcloud/rscli/internal/stream"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

type StreamListOptions struct {
	OutputFormat string
}

// streamFamily is the JSON form of a profile family.
type streamFamily struct {
	Stream     string            `json:"stream"`
	Index      int               `json:"index"`
	Resolution stream.Resolution `json:"resolution"`
	FPS        []int             `json:"fps"`
	Format     string            `json:"format"`
}

func NewStreamListCommand() *cobra.Command {
	opts := &StreamListOptions{}

	cmd := &cobra.Command{
		Use:   "list [SENSORS...]",
		Short: "List supported streams",
		Long:  "List supported streams for the given sensors, or for every sensor of the active device",
		Example: `  rscli stream list
  rscli stream list depth color
  rscli stream list --output json`,
		ValidArgsFunction: completeSensors,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(opts.OutputFormat); err != nil {
				return err
			}
			return withRegistry(func(r *device.Registry) error {
				profiles, err := collectProfiles(r, args)
				if err != nil {
					return err
				}
				return printFamilies(cmd, stream.GroupByFamily(profiles), opts.OutputFormat)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (json or text)")
	cmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	return cmd
}

// collectProfiles concatenates the catalogs of the named sensors. Without names,
// sensors advertising nothing are skipped.
func collectProfiles(r *device.Registry, names []string) ([]stream.Profile, error) {
	sensors, err := parseSensors(r, names)
	if err != nil {
		return nil, err
	}

	var profiles []stream.Profile
	for _, s := range sensors {
		catalog, err := r.ListProfiles(s)
		if err != nil {
			if len(names) == 0 {
				util.GetLogger().Debug("Skipping sensor", "sensor", s.SDKName(), "error", err)
				continue
			}
			return nil, err
		}
		profiles = append(profiles, catalog...)
	}
	return profiles, nil
}

func printFamilies(cmd *cobra.Command, families []stream.Family, format string) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		data := make([]streamFamily, 0, len(families))
		for _, f := range families {
			data = append(data, streamFamily{
				Stream:     f.Profile.Stream.Name(),
				Index:      f.Profile.Index,
				Resolution: f.Profile.Resolution,
				FPS:        f.FPS,
				Format:     f.Profile.Format,
			})
		}
		return printJSON(out, data)
	}
	if len(families) == 0 {
		fmt.Fprintln(out, "No streams found")
		return nil
	}

	data := make([]map[string]interface{}, 0, len(families))
	for _, f := range families {
		rates := make([]string, 0, len(f.FPS))
		for _, fps := range f.FPS {
			rates = append(rates, strconv.Itoa(fps))
		}
		data = append(data, map[string]interface{}{
			"stream":     f.Profile.Stream.SDKName(),
			"resolution": f.Profile.Resolution.String(),
			"fps":        strings.Join(rates, "/"),
			"format":     f.Profile.Format,
		})
	}
	util.RenderTable(out, []util.TableColumn{
		{Header: "Stream", Key: "stream"},
		{Header: "Resolution", Key: "resolution"},
		{Header: "FPS", Key: "fps"},
		{Header: "Format", Key: "format"},
	}, data)
	return nil
}
