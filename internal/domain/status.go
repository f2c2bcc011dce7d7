package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	          (или) → CANCELLED (из PENDING или RUNNING)
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — run успешно завершён: каждый шаг
	// SUCCEEDED или SKIPPED.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — run завершился с ошибкой.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run отменён оператором (SIGINT/SIGTERM).
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// StepStatus — статус выполнения шага в рамках одного run.
//
// Жизненный цикл (только вперёд, возвратов нет):
//
//	PENDING → SKIPPED                (idempotency check сработал)
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//
// Шаг, до которого выполнение не дошло (run прерван раньше),
// остаётся в PENDING.
type StepStatus string

const (
	// StepStatusPending — шаг ещё не выполнялся.
	StepStatusPending StepStatus = "PENDING"

	// StepStatusSkipped — шаг пропущен: его эффект уже присутствует
	// в окружении, команда не запускалась.
	StepStatusSkipped StepStatus = "SKIPPED"

	// StepStatusRunning — команда шага выполняется.
	StepStatusRunning StepStatus = "RUNNING"

	// StepStatusSucceeded — команда завершилась с кодом 0.
	StepStatusSucceeded StepStatus = "SUCCEEDED"

	// StepStatusFailed — команда завершилась с ненулевым кодом,
	// превысила таймаут или не смогла запуститься.
	StepStatusFailed StepStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusSkipped, StepStatusSucceeded, StepStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Переходы только вперёд: PENDING → {SKIPPED|RUNNING} → {SUCCEEDED|FAILED}.
func (s StepStatus) CanTransitionTo(next StepStatus) bool {
	switch s {
	case StepStatusPending:
		return next == StepStatusSkipped || next == StepStatusRunning
	case StepStatusRunning:
		return next == StepStatusSucceeded || next == StepStatusFailed
	default:
		return false
	}
}
