package executor

import "errors"

// Ошибки выполнения шагов.
var (
	// ErrUnknownStepType — нет executor'а для данного типа шага.
	ErrUnknownStepType = errors.New("unknown step type")

	// ErrEnvironment — внешнюю команду не удалось запустить вообще
	// (исполняемый файл не найден, нет прав). Осмысленного вывода
	// нет, поэтому такая ошибка фатальна независимо от политики
	// on_failure шага.
	ErrEnvironment = errors.New("cannot spawn command")

	// ErrExecutionTimeout — выполнение шага превысило таймаут.
	ErrExecutionTimeout = errors.New("execution timeout")

	// ErrDownload — скачивание артефакта завершилось ошибкой.
	ErrDownload = errors.New("download failed")
)
