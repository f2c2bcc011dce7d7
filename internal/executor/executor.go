package executor

import (
	"context"
	"fmt"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// Максимальный размер сохраняемого вывода команды.
// При превышении сохраняется хвост — ошибки обычно в конце.
const maxOutputBytes = 32 * 1024

// Executor — интерфейс для выполнения конкретного типа шага.
//
// Реализации: CommandExecutor, DownloadExecutor.
//
// Контракт ошибок различает два уровня:
//   - Result с ненулевым ExitCode, err == nil — StepFailure: команда
//     запустилась и сообщила об ошибке; дальнейшая судьба run
//     определяется политикой on_failure шага.
//   - err != nil — инфраструктурная проблема: ErrEnvironment (команду
//     не удалось запустить), ErrExecutionTimeout (превышен таймаут
//     попытки) либо отмена контекста.
type Executor interface {
	Execute(ctx context.Context, step *domain.StepDef, tctx *engine.Context) (*Result, error)
}

// Result — результат одной попытки выполнения шага.
type Result struct {
	// ExitCode — код выхода команды (0 — успех).
	ExitCode int

	// Output — объединённый stdout+stderr (усечённый до maxOutputBytes).
	Output string

	// Command — фактически выполненная команда после рендеринга
	// шаблонов (для отчёта и диагностики).
	Command []string
}

// Succeeded возвращает true, если попытка завершилась успешно.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Registry — реестр executor'ов по типу шага.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry создаёт реестр с зарегистрированными executor'ами
// по умолчанию: command, download.
func NewRegistry() *Registry {
	r := &Registry{executors: make(map[string]Executor)}
	r.Register("command", &CommandExecutor{})
	r.Register("download", NewDownloadExecutor())
	return r
}

// Register добавляет executor для типа шага.
func (r *Registry) Register(stepType string, executor Executor) {
	r.executors[stepType] = executor
}

// Get возвращает executor для типа шага.
func (r *Registry) Get(stepType string) (Executor, error) {
	executor, ok := r.executors[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepType, stepType)
	}
	return executor, nil
}

// truncateOutput усекает вывод до maxOutputBytes, сохраняя хвост.
func truncateOutput(out []byte) string {
	if len(out) <= maxOutputBytes {
		return string(out)
	}
	return "..." + string(out[len(out)-maxOutputBytes:])
}
