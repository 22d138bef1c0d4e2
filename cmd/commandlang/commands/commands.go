package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCommandsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "commands",
		Aliases: []string{"ls"},
		Short:   "List the registered commands",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSOURCE\tDESCRIPTION")
			for _, c := range a.registry.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Source, c.Description)
			}
			return w.Flush()
		},
	}
}

func newRunCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Invoke a command as the context's author",
		Long: `Invoke a command the way a chat user typing it would, and print every
reply it (and any command it dispatches) sends.`,
		Example: `  commandlang run echo hello
  commandlang run --context fixture.yaml --config commandlang.yaml greet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			line := strings.Join(args, " ")
			if !a.manager.Invoke(a.message, line) {
				return fmt.Errorf("unknown command %q", args[0])
			}
			return nil
		},
	}
}
