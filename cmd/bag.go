package cmd

import (
	"fmt"

	"github.com/babelcloud/rscli/internal/bag"
	"github.com/babelcloud/rscli/internal/util"
	"github.com/spf13/cobra"
)

type BagInfoOptions struct {
	OutputFormat string
}

func NewBagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bag",
		Short: "Inspect recorded bag files",
	}

	cmd.AddCommand(NewBagInfoCommand())
	return cmd
}

func NewBagInfoCommand() *cobra.Command {
	opts := &BagInfoOptions{}

	cmd := &cobra.Command{
		Use:     "info FILE",
		Short:   "Show topics and duration of a recording",
		Example: `  rscli bag info recording.bag`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutputFormat(opts.OutputFormat); err != nil {
				return err
			}
			b, err := bag.Open(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.OutputFormat == "json" {
				return printJSON(out, map[string]interface{}{
					"path":     b.Path,
					"duration": b.Duration(),
					"topics":   b.Topics(),
				})
			}

			topics := b.Topics()
			data := make([]map[string]interface{}, 0, len(topics))
			for _, t := range topics {
				data = append(data, map[string]interface{}{
					"topic":    t.Name,
					"messages": t.Messages,
					"type":     t.Type,
				})
			}
			util.RenderTable(out, []util.TableColumn{
				{Header: "Topic", Key: "topic"},
				{Header: "Messages", Key: "messages"},
				{Header: "Message Type", Key: "type"},
			}, data)
			fmt.Fprintf(out, "\nBag       %s\n", b.Path)
			fmt.Fprintf(out, "Duration  %g seconds\n", b.Duration())
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutputFormat, "output", "o", "text", "Output format (json or text)")
	cmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	return cmd
}
