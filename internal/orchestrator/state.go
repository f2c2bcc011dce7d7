package orchestrator

import (
	"fmt"
	"time"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// RunState — состояние выполнения одного run в памяти.
//
// Создаётся в начале Execute и уничтожается вместе с run: никакое
// состояние между запусками не сохраняется. Содержит DAG, контекст
// шаблонов и статус каждого шага. Переходы статусов проверяются:
// только вперёд, PENDING → {SKIPPED|RUNNING} → {SUCCEEDED|FAILED}.
type RunState struct {
	// Run — метаданные текущего run.
	Run *domain.Run

	// Spec — выполняемый план.
	Spec *domain.PlanSpec

	// DAG — граф зависимостей с порядком выполнения.
	DAG *engine.DAG

	// Context — контекст для рендеринга шаблонов.
	Context *engine.Context

	// statuses — текущий статус каждого шага (stepID → status).
	statuses map[string]domain.StepStatus

	// results — результаты шагов (stepID → StepResult).
	results map[string]*domain.StepResult
}

// NewRunState создаёт RunState: все шаги в PENDING.
func NewRunState(run *domain.Run, spec *domain.PlanSpec, dag *engine.DAG) *RunState {
	statuses := make(map[string]domain.StepStatus, len(spec.Steps))
	results := make(map[string]*domain.StepResult, len(spec.Steps))

	for i := range spec.Steps {
		step := &spec.Steps[i]
		statuses[step.ID] = domain.StepStatusPending
		results[step.ID] = &domain.StepResult{
			StepID: step.ID,
			Name:   step.Name,
			Status: domain.StepStatusPending,
		}
	}

	return &RunState{
		Run:      run,
		Spec:     spec,
		DAG:      dag,
		Context:  engine.NewContext(run.Params),
		statuses: statuses,
		results:  results,
	}
}

// Status возвращает текущий статус шага.
func (s *RunState) Status(stepID string) domain.StepStatus {
	return s.statuses[stepID]
}

// transition переводит шаг в новый статус с проверкой допустимости.
func (s *RunState) transition(stepID string, next domain.StepStatus) error {
	current, ok := s.statuses[stepID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}
	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s: %s → %s", ErrInvalidTransition, stepID, current, next)
	}

	s.statuses[stepID] = next
	s.results[stepID].Status = next
	return nil
}

// MarkSkipped помечает шаг пропущенным (эффект уже присутствует).
func (s *RunState) MarkSkipped(stepID string) error {
	return s.transition(stepID, domain.StepStatusSkipped)
}

// MarkRunning помечает шаг выполняющимся.
func (s *RunState) MarkRunning(stepID string) error {
	if err := s.transition(stepID, domain.StepStatusRunning); err != nil {
		return err
	}
	now := time.Now()
	s.results[stepID].StartedAt = &now
	return nil
}

// MarkSucceeded помечает шаг успешно завершённым.
func (s *RunState) MarkSucceeded(stepID string, command []string, attempts, exitCode int, output string) error {
	if err := s.transition(stepID, domain.StepStatusSucceeded); err != nil {
		return err
	}
	s.finish(stepID, command, attempts, exitCode, output, "")
	return nil
}

// MarkFailed помечает шаг упавшим.
func (s *RunState) MarkFailed(stepID string, command []string, attempts, exitCode int, output, errMsg string) error {
	if err := s.transition(stepID, domain.StepStatusFailed); err != nil {
		return err
	}
	s.finish(stepID, command, attempts, exitCode, output, errMsg)
	return nil
}

// finish заполняет финальные поля результата шага.
func (s *RunState) finish(stepID string, command []string, attempts, exitCode int, output, errMsg string) {
	now := time.Now()
	res := s.results[stepID]
	res.Command = command
	res.Attempts = attempts
	res.ExitCode = exitCode
	res.Output = output
	res.Error = errMsg
	res.FinishedAt = &now
}

// DependenciesSatisfied возвращает true, если каждый из deps достиг
// финального статуса: SUCCEEDED, SKIPPED либо FAILED (упавший шаг
// с политикой continue считается "сделанной попыткой" — зависимым
// шагам этого достаточно; при политике abort run уже остановлен).
func (s *RunState) DependenciesSatisfied(step *domain.StepDef) bool {
	for _, dep := range step.DependsOn {
		if !s.statuses[dep].IsTerminal() {
			return false
		}
	}
	return true
}

// Result собирает итоговый RunResult в порядке выполнения.
func (s *RunState) Result() *domain.RunResult {
	result := &domain.RunResult{
		RunID:        s.Run.ID,
		PlanName:     s.Run.PlanName,
		Steps:        make([]domain.StepResult, 0, len(s.results)),
		AllSucceeded: true,
		Cancelled:    s.Run.Status == domain.RunStatusCancelled,
		Duration:     s.Run.Duration(),
	}

	for _, node := range s.DAG.Order {
		res := s.results[node.ID]
		result.Steps = append(result.Steps, *res)

		switch res.Status {
		case domain.StepStatusSucceeded, domain.StepStatusSkipped:
			// учитывается в AllSucceeded как успех
		case domain.StepStatusFailed:
			result.AllSucceeded = false
			if result.FailedAt == "" {
				result.FailedAt = res.StepID
			}
		default:
			// PENDING: до шага не дошли — run не полностью успешен
			result.AllSucceeded = false
		}
	}

	return result
}

// Stats возвращает статистику выполнения.
func (s *RunState) Stats() RunStats {
	stats := RunStats{TotalSteps: len(s.statuses)}
	for _, status := range s.statuses {
		switch status {
		case domain.StepStatusSucceeded:
			stats.SucceededSteps++
		case domain.StepStatusSkipped:
			stats.SkippedSteps++
		case domain.StepStatusFailed:
			stats.FailedSteps++
		case domain.StepStatusPending:
			stats.PendingSteps++
		}
	}
	return stats
}

// RunStats — статистика выполнения run.
type RunStats struct {
	TotalSteps     int
	SucceededSteps int
	SkippedSteps   int
	FailedSteps    int
	PendingSteps   int
}
