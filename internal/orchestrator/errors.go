package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrInvalidPlan — PlanSpec не прошёл валидацию.
	ErrInvalidPlan = errors.New("invalid plan spec")

	// ErrAlreadyExecuted — попытка повторно использовать Orchestrator.
	// Один экземпляр выполняет ровно один run; повторный запуск —
	// это новый экземпляр с тем же планом.
	ErrAlreadyExecuted = errors.New("orchestrator already executed a run")

	// ErrInvalidTransition — недопустимый переход статуса шага.
	// Статусы движутся только вперёд; нарушение — ошибка программы,
	// а не конфигурации.
	ErrInvalidTransition = errors.New("invalid step status transition")

	// ErrStepNotFound — шаг не найден в состоянии run.
	ErrStepNotFound = errors.New("step not found in run state")
)
