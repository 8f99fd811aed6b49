package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// Setup help command
func setupHelpCommand(rootCmd *cobra.Command) {
	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			defaultHelp(cmd, args)
			return
		}
		printRootHelpOrdered(cmd)
	})
	rootCmd.SetHelpCommand(&cobra.Command{
		Use:   "help [command]",
		Short: "Show help information",
		Run: func(cmd *cobra.Command, args []string) {
			target, _, err := cmd.Root().Find(args)
			if len(args) == 0 || err != nil || target == nil {
				printRootHelpOrdered(cmd.Root())
				return
			}
			target.Help()
		},
	})
}

// printRootHelpOrdered prints the root help with commands ordered by a custom priority
func printRootHelpOrdered(cmd *cobra.Command) {
	// Priority order for top-level commands
	priority := []string{"list", "stream", "config", "safety", "bag", "version", "completion", "help"}
	priorityIndex := map[string]int{}
	for i, name := range priority {
		priorityIndex[name] = i
	}

	out := cmd.OutOrStdout()
	if cmd.Long != "" {
		fmt.Fprintln(out, cmd.Long)
	} else if cmd.Short != "" {
		fmt.Fprintln(out, cmd.Short)
	}

	fmt.Fprintln(out, "\nUsage:")
	fmt.Fprintf(out, "  %s [flags]\n", cmd.Name())
	fmt.Fprintf(out, "  %s [command]\n", cmd.Name())

	commands := []*cobra.Command{}
	for _, c := range cmd.Commands() {
		if !c.IsAvailableCommand() || c.Hidden {
			continue
		}
		commands = append(commands, c)
	}

	// Custom sort by priority, then by name
	sort.SliceStable(commands, func(i, j int) bool {
		ci, cj := commands[i], commands[j]
		pi, okI := priorityIndex[ci.Name()]
		pj, okJ := priorityIndex[cj.Name()]
		if okI && okJ {
			return pi < pj
		}
		if okI != okJ {
			return okI
		}
		return ci.Name() < cj.Name()
	})

	fmt.Fprintln(out, "\nAvailable Commands:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-14s %s\n", c.Name(), c.Short)
	}

	fmt.Fprintln(out, "\nFlags:")
	fmt.Fprint(out, cmd.LocalFlags().FlagUsages())

	fmt.Fprintf(out, "\nUse \"%s [command] --help\" for more information about a command.\n", cmd.Name())
}
