package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Provisio/internal/engine"
	"github.com/shaiso/Provisio/internal/plan"
)

// NewGraphCmd создаёт команду печати порядка выполнения плана.
func NewGraphCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "graph [PLAN]",
		Short: "Print the execution order of a plan",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}

			spec, err := plan.Load(ref)
			if err != nil {
				return err
			}

			dag, err := engine.BuildDAG(spec)
			if err != nil {
				return err
			}

			headers := []string{"#", "STEP", "TYPE", "DEPENDS_ON"}
			rows := make([][]string, 0, dag.Size())
			for i, node := range dag.Order {
				deps := "-"
				if len(node.Step.DependsOn) > 0 {
					deps = strings.Join(node.Step.DependsOn, ", ")
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					node.ID,
					node.Step.Type,
					deps,
				})
			}

			if out.jsonMode {
				out.JSON(dag.OrderedIDs())
				return nil
			}
			out.Table(headers, rows)
			return nil
		},
	}
}
