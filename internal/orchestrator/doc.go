// Package orchestrator выполняет план целиком: строит порядок шагов,
// прогоняет их строго последовательно и ведёт состояние run'а.
//
// Основные компоненты:
//   - Orchestrator — последовательный цикл выполнения с политиками
//     on_failure, retry и idempotency-проверками.
//   - RunState — статусы и результаты шагов одного run'а с контролем
//     допустимых переходов.
//
// Execute возвращает ошибку только для невалидного плана (до запуска
// какой-либо команды); падения шагов записываются в RunResult.
package orchestrator
