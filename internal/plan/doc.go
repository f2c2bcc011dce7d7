// Package plan загружает планы выполнения: из JSON-файла по пути
// либо встроенный план по имени.
//
// Единственный встроенный план — bootstrap: подготовка окружения
// для corpus-пайплайна (клонирование репозитория, системные
// библиотеки, нативная сборка, языковые модели, установка пакета).
package plan
