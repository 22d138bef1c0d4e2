package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

func newLexCmd() *cobra.Command {
	var (
		file string
		expr bool
	)

	cmd := &cobra.Command{
		Use:   "lex [template...]",
		Short: "Show how a template is segmented",
		Long: `Print the segments of a template, one per line, with their opcode.

With --expr the input is treated as an expression and its tokens are
printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, file, args)
			if err != nil {
				return err
			}

			if expr {
				tokens, err := commandlang.Tokenize(input)
				if err != nil {
					return err
				}
				for _, tok := range tokens {
					kind := "operand"
					if commandlang.IsOperator(tok) {
						kind = "operator"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", kind, tok)
				}
				return nil
			}

			segments, err := commandlang.ParseTemplate(input)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OP\tTYPE\tEXPRESSION\tCONTENT")
			for _, seg := range segments {
				content := seg.Content
				if seg.Type.IsConditional() {
					content = seg.Body
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					int(seg.Type), seg.Type, seg.Expression, strconv.Quote(content))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the input from a file")
	cmd.Flags().BoolVarP(&expr, "expr", "e", false, "Tokenize the input as an expression")
	return cmd
}
