// Package checks реализует idempotency-проверки шагов.
//
// Исходный bootstrap-скрипт не имел никакой защиты от повторного
// запуска: re-clone в существующую директорию, безусловный make
// install. Проверки этого пакета — предикаты "эффект уже есть",
// позволяющие пропускать выполненные шаги при повторном запуске.
//
// Какой предикат подходит шагу — свойство окружения, а не ядра,
// поэтому проверка задаётся в плане per-step:
//   - path_exists   — путь существует (clone)
//   - file_nonempty — файл существует и не пуст (download)
//   - command       — команда-проба вернула 0 (dpkg -s, import)
package checks
