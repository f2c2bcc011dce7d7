package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shaiso/Provisio/internal/domain"
)

// Node — узел в DAG.
type Node struct {
	// Step — определение шага из PlanSpec.
	Step *domain.StepDef

	// ID — идентификатор узла (равен Step.ID).
	ID string

	// Index — позиция шага в PlanSpec.Steps.
	// Используется как tie-break при топологической сортировке.
	Index int

	// InDegree — количество входящих рёбер (зависимостей).
	InDegree int

	// DependsOn — узлы, от которых зависит этот узел.
	DependsOn []*Node

	// Dependents — узлы, которые зависят от этого узла.
	Dependents []*Node
}

// DAG — направленный ациклический граф шагов плана.
type DAG struct {
	// Nodes — все узлы графа (stepID → Node).
	Nodes map[string]*Node

	// Order — топологически отсортированный список узлов.
	//
	// Порядок детерминирован: среди одновременно готовых узлов
	// выбирается объявленный в плане раньше. Два запуска одного
	// плана всегда дают один и тот же порядок выполнения.
	Order []*Node
}

// BuildDAG строит DAG из PlanSpec.
//
// Возвращает ошибку до запуска каких-либо внешних команд:
// ErrUnknownDependency — если depends_on ссылается на несуществующий
// шаг, ErrCyclicDependency — если зависимости образуют цикл
// (в тексте ошибки перечислены шаги цикла).
func BuildDAG(spec *domain.PlanSpec) (*DAG, error) {
	dag := &DAG{
		Nodes: make(map[string]*Node),
	}

	// Первый проход: создаём все узлы
	for i := range spec.Steps {
		step := &spec.Steps[i]
		dag.Nodes[step.ID] = &Node{
			Step:       step,
			ID:         step.ID,
			Index:      i,
			DependsOn:  make([]*Node, 0),
			Dependents: make([]*Node, 0),
		}
	}

	// Второй проход: связываем узлы по зависимостям
	for i := range spec.Steps {
		step := &spec.Steps[i]
		node := dag.Nodes[step.ID]

		for _, depID := range step.DependsOn {
			depNode, exists := dag.Nodes[depID]
			if !exists {
				return nil, NewValidationError(step.ID, "depends_on",
					fmt.Sprintf("depends on unknown step: %s", depID), ErrUnknownDependency)
			}
			dag.addEdge(depNode, node)
		}
	}

	order, err := dag.topologicalSort()
	if err != nil {
		return nil, err
	}
	dag.Order = order

	return dag, nil
}

// addEdge добавляет ребро между узлами.
// Дополнительно проверяет на дубликаты, чтобы избежать двойного учета InDegree.
func (d *DAG) addEdge(from, to *Node) {
	for _, dep := range to.DependsOn {
		if dep.ID == from.ID {
			return // уже связаны
		}
	}
	from.Dependents = append(from.Dependents, to)
	to.DependsOn = append(to.DependsOn, from)
	to.InDegree++
}

// topologicalSort выполняет топологическую сортировку (алгоритм Кана).
//
// Среди узлов с inDegree 0 всегда выбирается узел с минимальным
// Index — порядок выполнения воспроизводим между запусками.
// Возвращает ErrCyclicDependency, если обнаружен цикл.
func (d *DAG) topologicalSort() ([]*Node, error) {
	// Копируем inDegree, чтобы не модифицировать оригинал
	inDegree := make(map[string]int, len(d.Nodes))
	for id, node := range d.Nodes {
		inDegree[id] = node.InDegree
	}

	// Очередь узлов с inDegree = 0, упорядоченная по Index
	ready := make([]*Node, 0, len(d.Nodes))
	for _, node := range d.Nodes {
		if node.InDegree == 0 {
			ready = append(ready, node)
		}
	}
	sortByIndex(ready)

	order := make([]*Node, 0, len(d.Nodes))

	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)

		released := make([]*Node, 0)
		for _, dependent := range node.Dependents {
			inDegree[dependent.ID]--
			if inDegree[dependent.ID] == 0 {
				released = append(released, dependent)
			}
		}

		if len(released) > 0 {
			ready = append(ready, released...)
			sortByIndex(ready)
		}
	}

	// Если не все узлы обработаны — есть цикл
	if len(order) != len(d.Nodes) {
		return nil, fmt.Errorf("%w: %s", ErrCyclicDependency,
			strings.Join(d.unresolved(inDegree), ", "))
	}

	return order, nil
}

// unresolved возвращает ID узлов, оставшихся с ненулевым inDegree —
// участников (и заложников) цикла. Отсортированы по позиции в плане.
func (d *DAG) unresolved(inDegree map[string]int) []string {
	remaining := make([]*Node, 0)
	for id, deg := range inDegree {
		if deg > 0 {
			remaining = append(remaining, d.Nodes[id])
		}
	}
	sortByIndex(remaining)

	ids := make([]string, len(remaining))
	for i, node := range remaining {
		ids[i] = node.ID
	}
	return ids
}

// sortByIndex сортирует узлы по позиции объявления в плане.
func sortByIndex(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Index < nodes[j].Index
	})
}

// GetNode возвращает узел по ID.
func (d *DAG) GetNode(id string) *Node {
	return d.Nodes[id]
}

// Size возвращает количество узлов в DAG.
func (d *DAG) Size() int {
	return len(d.Nodes)
}

// OrderedIDs возвращает ID шагов в порядке выполнения.
func (d *DAG) OrderedIDs() []string {
	ids := make([]string, len(d.Order))
	for i, node := range d.Order {
		ids[i] = node.ID
	}
	return ids
}
