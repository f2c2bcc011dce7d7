// Package telemetry обеспечивает наблюдаемость запусков.
//
// Включает:
//   - logging.go — structured logging через slog (stderr)
//   - metrics.go — Prometheus метрики, опциональный /metrics endpoint
//     на время долгого bootstrap'а (--metrics-addr)
//
// Формат логов управляется переменными LOG_LEVEL и LOG_FORMAT.
package telemetry
