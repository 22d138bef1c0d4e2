package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

func newRenderCmd(opts *globalOptions) *cobra.Command {
	var (
		file    string
		literal bool
	)

	cmd := &cobra.Command{
		Use:   "render [template...]",
		Short: "Render a template against the chat context",
		Long: `Render a CommandLang template and print the result.

The template is taken from the arguments (joined by spaces), from --file,
or from stdin when neither is given. Substitutions naming a registered
command dispatch it; their replies are printed before the rendered text.`,
		Example: `  commandlang render 'Hi {a:n}[if r:n = "Admin"](, boss)!'
  commandlang render --file greeting.txt --context fixture.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := readInput(cmd, file, args)
			if err != nil {
				return err
			}

			var extra []commandlang.Option
			if literal {
				extra = append(extra, commandlang.WithResolver(commandlang.LiteralResolver{}))
			}
			a, err := newApp(opts.cfg, cmd.OutOrStdout(), extra...)
			if err != nil {
				return err
			}

			out, err := a.renderer.Render(a.message, template)
			// Replies share the writer, so let dispatched commands finish
			// before printing.
			a.close()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the template from a file")
	cmd.Flags().BoolVar(&literal, "literal", false, "Treat every token as a literal instead of resolving context names")
	return cmd
}

func newEvalCmd(opts *globalOptions) *cobra.Command {
	var showKind bool

	cmd := &cobra.Command{
		Use:   "eval <expression...>",
		Short: "Evaluate a single expression",
		Example: `  commandlang eval '(1 + 2) * 3'
  commandlang eval --kind 'a:c'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.close()

			val, err := a.renderer.Evaluate(a.message, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if showKind {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", val.Kind(), val)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), val)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showKind, "kind", "k", false, "Print the kind of the result before its value")
	return cmd
}

// readInput returns the text named by --file, the joined arguments, or stdin.
func readInput(cmd *cobra.Command, file string, args []string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", errors.New("pass either a template or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read template: %w", err)
		}
		return strings.TrimSuffix(string(data), "\n"), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
