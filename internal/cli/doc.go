// Package cli реализует команды provisio: run, validate, graph.
//
// Данные (таблица шагов, JSON) пишутся в stdout, диагностика
// (лог, вывод упавшего шага) — в stderr, так что stdout можно
// передавать по конвейеру дальше.
package cli
