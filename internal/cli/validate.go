package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Provisio/internal/engine"
	"github.com/shaiso/Provisio/internal/plan"
)

// NewValidateCmd создаёт команду pre-flight валидации плана.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [PLAN]",
		Short: "Validate a plan without executing it",
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

			if err := engine.Validate(spec); err != nil {
				return fmt.Errorf("plan invalid: %w", err)
			}
			if _, err := engine.BuildDAG(spec); err != nil {
				return fmt.Errorf("plan invalid: %w", err)
			}

			out.Success(fmt.Sprintf("Plan %q valid: %d steps", spec.Name, len(spec.Steps)))
			return nil
		},
	}
}
