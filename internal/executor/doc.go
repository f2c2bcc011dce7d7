// Package executor выполняет отдельные шаги плана.
//
// # Обзор
//
// Executor — слой между оркестратором и внешним миром. Каждый тип
// шага реализует интерфейс Executor:
//
//	type Executor interface {
//	    Execute(ctx context.Context, step *domain.StepDef, tctx *engine.Context) (*Result, error)
//	}
//
// Реализации:
//   - CommandExecutor — запуск внешнего процесса (git, apt-get, make,
//     pip) с захватом кода выхода и объединённого вывода
//   - DownloadExecutor — скачивание артефакта по HTTP во временный
//     файл с переименованием после успеха и retry с backoff
//
// # Registry
//
// Реестр executor'ов по типу шага. NewRegistry() создаёт реестр
// с предустановленными executor'ами (command, download).
//
// # Ошибки
//
// Пакет различает два уровня ошибок:
//   - StepFailure — команда запустилась и вернула ненулевой код
//     (Result.ExitCode != 0, err == nil); политику дальнейшего
//     выполнения определяет on_failure шага.
//   - Инфраструктурные (err != nil) — ErrEnvironment (исполняемый
//     файл не найден, нет прав: запуска не было, осмысленного вывода
//     нет), ErrExecutionTimeout, отмена контекста. ErrEnvironment
//     фатальна для run независимо от on_failure.
//
// Внешние инструменты непрозрачны: executor не разбирает их вывод
// и не знает их внутренних форматов, наблюдая только код выхода.
package executor
