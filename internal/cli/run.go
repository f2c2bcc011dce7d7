package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/orchestrator"
	"github.com/shaiso/Provisio/internal/plan"
	"github.com/shaiso/Provisio/internal/telemetry"
)

// NewRunCmd создаёт команду запуска плана.
func NewRunCmd(logger *slog.Logger, outputFn func() *Output) *cobra.Command {
	var language string
	var workDir string
	var params []string
	var stepTimeout time.Duration
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "run [PLAN]",
		Short: "Execute a plan",
		Long: `Execute a plan: a builtin plan name (default "bootstrap")
or a path to a JSON plan file. Steps run strictly in dependency order;
steps whose idempotency check is already satisfied are skipped.`,
		Args: cobra.MaximumNArgs(1),
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

			runParams, err := collectParams(params, language, workDir)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				telemetry.ServeMetrics(cmd.Context(), metricsAddr, logger)
			}

			orch := orchestrator.New(orchestrator.Config{
				StepTimeout: stepTimeout,
				Logger:      logger,
			})

			result, err := orch.Execute(cmd.Context(), spec, runParams)
			if err != nil {
				return err
			}

			out.Summary(result)

			if result.Cancelled {
				return fmt.Errorf("run cancelled")
			}
			if !result.AllSucceeded {
				out.Failure(result)
				return fmt.Errorf("run failed at step %s", result.FailedAt)
			}

			succeeded, skipped := 0, 0
			for _, step := range result.Steps {
				switch step.Status {
				case domain.StepStatusSucceeded:
					succeeded++
				case domain.StepStatusSkipped:
					skipped++
				}
			}
			out.Success(fmt.Sprintf("Run succeeded: %d executed, %d skipped, took %s",
				succeeded, skipped, formatDuration(result.Duration)))
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Language code for model assets (plan param language)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Base working directory (plan param work_dir)")
	cmd.Flags().StringSliceVar(&params, "param", nil, "Plan parameter as KEY=VALUE (repeatable)")
	cmd.Flags().DurationVar(&stepTimeout, "step-timeout", 0, "Timeout for a single step attempt (0 = none)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address for the run's duration")

	return cmd
}

// collectParams собирает параметры run'а из флагов.
// Именованные флаги (--language, --work-dir) — сокращения для
// одноимённых параметров плана.
func collectParams(pairs []string, language, workDir string) (map[string]string, error) {
	params := make(map[string]string, len(pairs)+2)

	for _, kv := range pairs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid param format %q, expected KEY=VALUE", kv)
		}
		params[parts[0]] = parts[1]
	}

	if language != "" {
		params["language"] = language
	}
	if workDir != "" {
		params["work_dir"] = workDir
	}

	return params, nil
}
