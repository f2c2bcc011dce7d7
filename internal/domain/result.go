package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepResult — финальное состояние одного шага в рамках run.
//
// Заполняется оркестратором по мере выполнения. Для шагов, до
// которых выполнение не дошло (run прерван политикой abort или
// отменён), Status остаётся PENDING, а остальные поля пустые.
type StepResult struct {
	// StepID — идентификатор шага из PlanSpec.
	StepID string `json:"step_id"`

	// Name — имя шага (копия StepDef.Name для удобства отчёта).
	Name string `json:"name,omitempty"`

	// Status — финальный статус шага.
	Status StepStatus `json:"status"`

	// Command — фактически выполненная команда (после рендеринга
	// шаблонов). Пустая для SKIPPED и PENDING.
	Command []string `json:"command,omitempty"`

	// Attempts — количество сделанных попыток.
	Attempts int `json:"attempts,omitempty"`

	// ExitCode — код выхода последней попытки.
	// Имеет смысл только для SUCCEEDED/FAILED шагов типа command.
	ExitCode int `json:"exit_code"`

	// Output — объединённый stdout+stderr команды (усечённый).
	Output string `json:"output,omitempty"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration возвращает продолжительность выполнения шага.
func (sr *StepResult) Duration() time.Duration {
	if sr.StartedAt == nil || sr.FinishedAt == nil {
		return 0
	}
	return sr.FinishedAt.Sub(*sr.StartedAt)
}

// RunResult — итог одного run: статус каждого шага плюс агрегат.
//
// Неизменяем после завершения run; живёт только до выхода процесса.
type RunResult struct {
	// RunID — идентификатор run.
	RunID uuid.UUID `json:"run_id"`

	// PlanName — имя выполненного плана.
	PlanName string `json:"plan_name"`

	// Steps — результаты шагов в порядке выполнения.
	Steps []StepResult `json:"steps"`

	// AllSucceeded — true, если каждый шаг SUCCEEDED или SKIPPED.
	AllSucceeded bool `json:"all_succeeded"`

	// FailedAt — ID первого упавшего шага (пустая строка, если
	// падений не было).
	FailedAt string `json:"failed_at,omitempty"`

	// Cancelled — true, если run был прерван оператором.
	Cancelled bool `json:"cancelled,omitempty"`

	// Duration — общая продолжительность run.
	Duration time.Duration `json:"duration"`
}

// Step возвращает результат шага по ID (nil, если не найден).
func (r *RunResult) Step(stepID string) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].StepID == stepID {
			return &r.Steps[i]
		}
	}
	return nil
}

// Counts возвращает количество шагов в каждом статусе.
func (r *RunResult) Counts() map[StepStatus]int {
	counts := make(map[StepStatus]int)
	for i := range r.Steps {
		counts[r.Steps[i].Status]++
	}
	return counts
}
