// Package engine содержит движок подготовки плана к выполнению.
//
// Включает:
//   - parser.go   — парсинг и валидация PlanSpec из JSON
//   - dag.go      — построение DAG и детерминированный порядок выполнения
//   - template.go — рендеринг Go templates ({{ .Params.x }})
//
// Engine отвечает за понимание структуры плана и определение
// порядка выполнения шагов на основе их зависимостей. Все ошибки
// конфигурации (неизвестная зависимость, цикл, неизвестный тип шага)
// обнаруживаются здесь — до запуска первой внешней команды.
package engine
