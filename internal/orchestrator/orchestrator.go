package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/shaiso/Provisio/internal/checks"
	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
	"github.com/shaiso/Provisio/internal/executor"
	"github.com/shaiso/Provisio/internal/telemetry"
)

// Фазы жизненного цикла Orchestrator.
//
//	NotStarted → Running → Completed
//
// Completed — терминальная фаза: повторный Execute того же
// экземпляра невозможен, повторный запуск плана — новый экземпляр.
type phase int

const (
	phaseNotStarted phase = iota
	phaseRunning
	phaseCompleted
)

// Orchestrator выполняет план: валидирует, строит порядок,
// прогоняет шаги строго последовательно.
//
// Последовательность принципиальна: шаги мутируют разделяемое
// состояние ОС (база пакетного менеджера, директории сборки),
// которое небезопасно мутировать конкурентно. Одновременно
// выполняется не более одного шага; блокировки против внешних
// инструментов — забота самих инструментов.
type Orchestrator struct {
	executors *executor.Registry
	checks    *checks.Registry

	// stepTimeout — глобальный потолок длительности одной попытки
	// шага; per-step timeout_sec в плане имеет приоритет.
	// 0 — без ограничения.
	stepTimeout time.Duration

	logger *slog.Logger
	phase  phase
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Executors — реестр executor'ов (опционально; default: NewRegistry()).
	Executors *executor.Registry

	// Checks — реестр idempotency-проверок (опционально).
	Checks *checks.Registry

	// StepTimeout — потолок длительности попытки шага (0 — нет).
	StepTimeout time.Duration

	// Logger — логгер (опционально; default: slog.Default()).
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	executors := cfg.Executors
	if executors == nil {
		executors = executor.NewRegistry()
	}

	checkRegistry := cfg.Checks
	if checkRegistry == nil {
		checkRegistry = checks.NewRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		executors:   executors,
		checks:      checkRegistry,
		stepTimeout: cfg.StepTimeout,
		logger:      logger,
	}
}

// Execute выполняет план с параметрами и возвращает RunResult.
//
// Ошибка возвращается только для ConfigurationError (невалидный
// план, цикл, неизвестная зависимость) — в этом случае ни одна
// внешняя команда не запускалась и RunResult отсутствует.
// Падения шагов ошибкой Execute не являются: их судьба записана
// в RunResult (AllSucceeded, FailedAt, статусы шагов).
//
// Отмена ctx (SIGINT/SIGTERM) убивает текущую команду и не даёт
// стартовать следующим шагам; эффекты уже завершённых шагов
// не откатываются.
func (o *Orchestrator) Execute(ctx context.Context, spec *domain.PlanSpec, params map[string]string) (*domain.RunResult, error) {
	if o.phase != phaseNotStarted {
		return nil, ErrAlreadyExecuted
	}
	o.phase = phaseRunning
	defer func() { o.phase = phaseCompleted }()

	// Вся конфигурация проверяется до запуска первой команды
	if err := engine.Validate(spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	dag, err := engine.BuildDAG(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	run := domain.NewRun(spec.Name, mergedParams(spec, params))
	state := NewRunState(run, spec, dag)

	logger := telemetry.WithRunID(telemetry.WithPlan(o.logger, run.PlanName), run.ID.String())
	logger.Info("run started", "steps", dag.Size(), "order", dag.OrderedIDs())

	telemetry.RunInfo.WithLabelValues(run.ID.String(), run.PlanName).Set(1)
	defer telemetry.RunInfo.WithLabelValues(run.ID.String(), run.PlanName).Set(0)

	run.MarkRunning()
	o.runSteps(ctx, state, logger)
	o.finalize(state, logger)

	return state.Result(), nil
}

// runSteps прогоняет шаги в порядке DAG до конца плана,
// остановки политикой abort или отмены.
func (o *Orchestrator) runSteps(ctx context.Context, state *RunState, logger *slog.Logger) {
	for _, node := range state.DAG.Order {
		if ctx.Err() != nil {
			state.Run.MarkCancelled()
			logger.Warn("run cancelled, remaining steps not attempted")
			return
		}

		step := node.Step
		stepLogger := telemetry.WithStepID(logger, step.ID)

		if !state.DependenciesSatisfied(step) {
			// Зависимость осталась в PENDING — до неё не дошли;
			// этот шаг тоже остаётся PENDING
			continue
		}

		if o.shouldSkip(ctx, state, step, stepLogger) {
			if err := state.MarkSkipped(step.ID); err != nil {
				stepLogger.Error("status transition rejected", "error", err)
			}
			telemetry.ObserveStep(step.ID, string(domain.StepStatusSkipped), 0)
			stepLogger.Info("step skipped, already satisfied")
			continue
		}

		if err := state.MarkRunning(step.ID); err != nil {
			stepLogger.Error("status transition rejected", "error", err)
			continue
		}
		stepLogger.Info("step started")

		outcome := o.runStep(ctx, state, step, stepLogger)
		res := state.results[step.ID]

		switch {
		case outcome.err == nil && outcome.result.Succeeded():
			state.MarkSucceeded(step.ID, outcome.result.Command, outcome.attempts, 0, outcome.result.Output)
			telemetry.ObserveStep(step.ID, string(domain.StepStatusSucceeded), res.Duration())
			stepLogger.Info("step succeeded", "attempts", outcome.attempts, "duration", res.Duration())

		case outcome.err != nil && errors.Is(outcome.err, executor.ErrEnvironment):
			// Команду не удалось запустить вообще — фатально
			// независимо от on_failure: осмысленного вывода нет
			state.MarkFailed(step.ID, outcome.command(), outcome.attempts, -1, outcome.output(), outcome.err.Error())
			telemetry.ObserveStep(step.ID, string(domain.StepStatusFailed), res.Duration())
			stepLogger.Error("step failed: environment error, aborting run", "error", outcome.err)
			return

		case outcome.err != nil && errors.Is(outcome.err, context.Canceled):
			state.MarkFailed(step.ID, outcome.command(), outcome.attempts, -1, outcome.output(), "cancelled by operator")
			telemetry.ObserveStep(step.ID, string(domain.StepStatusFailed), res.Duration())
			state.Run.MarkCancelled()
			stepLogger.Warn("step cancelled")
			return

		default:
			// Ненулевой код выхода или таймаут попытки
			state.MarkFailed(step.ID, outcome.command(), outcome.attempts,
				outcome.exitCode(), outcome.output(), outcome.errorMessage())
			telemetry.ObserveStep(step.ID, string(domain.StepStatusFailed), res.Duration())

			policy := step.EffectiveOnFailure(state.Spec.Defaults)
			if policy == domain.OnFailureAbort {
				stepLogger.Error("step failed, aborting run",
					"exit_code", outcome.exitCode(), "attempts", outcome.attempts)
				return
			}
			stepLogger.Warn("step failed, continuing per policy",
				"exit_code", outcome.exitCode(), "attempts", outcome.attempts)
		}
	}
}

// shouldSkip вычисляет idempotency check шага.
// Ошибка проверки трактуется консервативно: шаг выполняется.
func (o *Orchestrator) shouldSkip(ctx context.Context, state *RunState, step *domain.StepDef, logger *slog.Logger) bool {
	if step.Check == nil {
		return false
	}

	satisfied, err := o.checks.Satisfied(ctx, step.Check, state.Context)
	if err != nil {
		logger.Warn("idempotency check failed, running step anyway", "error", err)
		return false
	}
	return satisfied
}

// stepOutcome — итог всех попыток одного шага.
type stepOutcome struct {
	result   *executor.Result
	attempts int
	err      error
}

func (so *stepOutcome) command() []string {
	if so.result != nil {
		return so.result.Command
	}
	return nil
}

func (so *stepOutcome) output() string {
	if so.result != nil {
		return so.result.Output
	}
	return ""
}

func (so *stepOutcome) exitCode() int {
	if so.result != nil {
		return so.result.ExitCode
	}
	return -1
}

func (so *stepOutcome) errorMessage() string {
	if so.err != nil {
		return so.err.Error()
	}
	if so.result != nil && !so.result.Succeeded() {
		return fmt.Sprintf("exit code %d", so.result.ExitCode)
	}
	return ""
}

// runStep выполняет шаг с учётом политики retry.
//
// Retry выполняется in-process: это даёт точный контроль над
// backoff и подсчётом попыток. Ретраятся ненулевые коды выхода и
// таймауты; ErrEnvironment и отмена контекста — нет.
func (o *Orchestrator) runStep(ctx context.Context, state *RunState, step *domain.StepDef, logger *slog.Logger) *stepOutcome {
	exec, err := o.executors.Get(step.Type)
	if err != nil {
		return &stepOutcome{err: fmt.Errorf("%w: %v", executor.ErrEnvironment, err)}
	}

	outcome := &stepOutcome{}

	retryErr := retry.Do(func() error {
		outcome.attempts++

		attemptCtx := ctx
		var cancel context.CancelFunc
		if timeout := o.attemptTimeout(state, step); timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		result, err := exec.Execute(attemptCtx, step, state.Context)
		outcome.result = result

		if err != nil {
			if errors.Is(err, executor.ErrExecutionTimeout) {
				return err // ретраится как обычное падение
			}
			return retry.Unrecoverable(err)
		}
		if !result.Succeeded() {
			return fmt.Errorf("exit code %d", result.ExitCode)
		}
		return nil
	}, o.retryOptions(ctx, state, step, logger)...)

	if retryErr != nil && (outcome.result == nil ||
		errors.Is(retryErr, executor.ErrEnvironment) ||
		errors.Is(retryErr, context.Canceled) ||
		errors.Is(retryErr, executor.ErrExecutionTimeout)) {
		outcome.err = retryErr
	}

	return outcome
}

// retryOptions строит опции retry-go из политики шага.
// Без политики — ровно одна попытка.
func (o *Orchestrator) retryOptions(ctx context.Context, state *RunState, step *domain.StepDef, logger *slog.Logger) []retry.Option {
	policy := step.EffectiveRetry(state.Spec.Defaults)

	attempts := uint(1)
	delay := time.Second
	maxDelay := 30 * time.Second
	delayType := retry.BackOffDelay

	if policy != nil {
		if policy.MaxAttempts > 1 {
			attempts = uint(policy.MaxAttempts)
		}
		if policy.InitialDelayMs > 0 {
			delay = time.Duration(policy.InitialDelayMs) * time.Millisecond
		}
		if policy.MaxDelayMs > 0 {
			maxDelay = time.Duration(policy.MaxDelayMs) * time.Millisecond
		}
		if policy.Backoff == "fixed" {
			delayType = retry.FixedDelay
		}
	}

	return []retry.Option{
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.MaxDelay(maxDelay),
		retry.DelayType(delayType),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("retrying step", "attempt", n+1, "error", err)
		}),
	}
}

// attemptTimeout возвращает таймаут одной попытки шага:
// per-step timeout_sec приоритетнее глобального StepTimeout.
func (o *Orchestrator) attemptTimeout(state *RunState, step *domain.StepDef) time.Duration {
	if sec := step.EffectiveTimeoutSec(state.Spec.Defaults); sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return o.stepTimeout
}

// finalize переводит run в терминальный статус по итогам шагов.
func (o *Orchestrator) finalize(state *RunState, logger *slog.Logger) {
	if state.Run.Status == domain.RunStatusCancelled {
		logger.Warn("run cancelled", "stats", state.Stats())
		return
	}

	result := state.Result()
	if result.AllSucceeded {
		state.Run.MarkSucceeded()
		logger.Info("run succeeded", "stats", state.Stats(), "duration", state.Run.Duration())
		return
	}

	state.Run.MarkFailed(fmt.Sprintf("failed at step %s", result.FailedAt))
	logger.Error("run failed", "failed_at", result.FailedAt, "stats", state.Stats())
}

// mergedParams объединяет параметры плана с параметрами вызова.
// Параметры вызова (флаги CLI) имеют приоритет.
func mergedParams(spec *domain.PlanSpec, params map[string]string) map[string]string {
	merged := make(map[string]string, len(spec.Params)+len(params))
	for k, v := range spec.Params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}
