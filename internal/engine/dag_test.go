package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Provisio/internal/domain"
)

func chainSpec() *domain.PlanSpec {
	return &domain.PlanSpec{
		Steps: []domain.StepDef{
			{ID: "clone", Type: "command", Command: []string{"git", "clone", "x"}},
			{ID: "build", Type: "command", Command: []string{"make"}, DependsOn: []string{"clone"}},
			{ID: "install", Type: "command", Command: []string{"pip", "install"}, DependsOn: []string{"build"}},
		},
	}
}

func TestBuildDAG_SimpleChain(t *testing.T) {
	dag, err := BuildDAG(chainSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dag.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", dag.Size())
	}

	got := dag.OrderedIDs()
	want := []string{"clone", "build", "install"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d]: expected %s, got %s", i, want[i], got[i])
		}
	}

	// Проверяем зависимости
	build := dag.GetNode("build")
	if len(build.DependsOn) != 1 || build.DependsOn[0].ID != "clone" {
		t.Error("build should depend on clone")
	}
	if build.InDegree != 1 {
		t.Errorf("build should have inDegree 1, got %d", build.InDegree)
	}
}

func TestBuildDAG_EveryStepAfterItsDependencies(t *testing.T) {
	// A → B → D
	// A → C → D
	spec := &domain.PlanSpec{
		Steps: []domain.StepDef{
			{ID: "A", Type: "command", Command: []string{"a"}},
			{ID: "B", Type: "command", Command: []string{"b"}, DependsOn: []string{"A"}},
			{ID: "C", Type: "command", Command: []string{"c"}, DependsOn: []string{"A"}},
			{ID: "D", Type: "command", Command: []string{"d"}, DependsOn: []string{"B", "C"}},
		},
	}

	dag, err := BuildDAG(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, id := range dag.OrderedIDs() {
		pos[id] = i
	}

	for _, node := range dag.Nodes {
		for _, dep := range node.DependsOn {
			if pos[dep.ID] >= pos[node.ID] {
				t.Errorf("%s appears before its dependency %s", node.ID, dep.ID)
			}
		}
	}
}

func TestBuildDAG_DeterministicOrder(t *testing.T) {
	// B и C готовы одновременно: tie-break — порядок объявления.
	spec := &domain.PlanSpec{
		Steps: []domain.StepDef{
			{ID: "root", Type: "command", Command: []string{"r"}},
			{ID: "beta", Type: "command", Command: []string{"b"}, DependsOn: []string{"root"}},
			{ID: "alpha", Type: "command", Command: []string{"a"}, DependsOn: []string{"root"}},
			{ID: "last", Type: "command", Command: []string{"l"}, DependsOn: []string{"beta", "alpha"}},
		},
	}

	want := []string{"root", "beta", "alpha", "last"}

	// Один и тот же порядок при повторных построениях
	for i := 0; i < 20; i++ {
		dag, err := BuildDAG(spec)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := dag.OrderedIDs()
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("iteration %d: expected order %v, got %v", i, want, got)
			}
		}
	}
}

func TestBuildDAG_CyclicDependency(t *testing.T) {
	spec := &domain.PlanSpec{
		Steps: []domain.StepDef{
			{ID: "A", Type: "command", Command: []string{"a"}, DependsOn: []string{"B"}},
			{ID: "B", Type: "command", Command: []string{"b"}, DependsOn: []string{"A"}},
		},
	}

	_, err := BuildDAG(spec)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("expected ErrCyclicDependency, got %v", err)
	}

	// Ошибка называет участников цикла
	if !strings.Contains(err.Error(), "A") || !strings.Contains(err.Error(), "B") {
		t.Errorf("cycle error should name cycle members, got: %v", err)
	}
}

func TestBuildDAG_CycleWithTail(t *testing.T) {
	// ok → (B ⇄ C); ok вне цикла, B и C — в ошибке
	spec := &domain.PlanSpec{
		Steps: []domain.StepDef{
			{ID: "ok", Type: "command", Command: []string{"x"}},
			{ID: "B", Type: "command", Command: []string{"b"}, DependsOn: []string{"ok", "C"}},
			{ID: "C", Type: "command", Command: []string{"c"}, DependsOn: []string{"B"}},
		},
	}

	_, err := BuildDAG(spec)
	if !errors.Is(err, ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	if strings.Contains(err.Error(), "ok") {
		t.Errorf("step outside the cycle should not be named, got: %v", err)
	}
}

func TestBuildDAG_UnknownDependency(t *testing.T) {
	spec := &domain.PlanSpec{
		Steps: []domain.StepDef{
			{ID: "A", Type: "command", Command: []string{"a"}, DependsOn: []string{"ghost"}},
		},
	}

	_, err := BuildDAG(spec)
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("expected ErrUnknownDependency, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatal("expected ValidationError")
	}
	if verr.StepID != "A" {
		t.Errorf("expected StepID A, got %s", verr.StepID)
	}
}

func TestBuildDAG_DuplicateEdge(t *testing.T) {
	spec := &domain.PlanSpec{
		Steps: []domain.StepDef{
			{ID: "A", Type: "command", Command: []string{"a"}},
			{ID: "B", Type: "command", Command: []string{"b"}, DependsOn: []string{"A", "A"}},
		},
	}

	dag, err := BuildDAG(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Дубликат depends_on не должен удваивать inDegree
	if dag.GetNode("B").InDegree != 1 {
		t.Errorf("expected inDegree 1, got %d", dag.GetNode("B").InDegree)
	}
}
