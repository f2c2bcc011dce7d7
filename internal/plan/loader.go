package plan

import (
	"errors"
	"fmt"
	"os"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// ErrPlanNotFound возвращается, когда аргумент не является ни именем
// встроенного плана, ни путём к существующему файлу.
var ErrPlanNotFound = errors.New("plan not found")

// DefaultPlan — план, используемый при запуске без аргументов.
const DefaultPlan = "bootstrap"

// builtins — встроенные планы по имени.
var builtins = map[string]func() *domain.PlanSpec{
	"bootstrap": Bootstrap,
}

// Load загружает план: сперва ищет встроенный план с таким именем,
// затем трактует аргумент как путь к JSON-файлу.
// Пустой ref загружает DefaultPlan.
func Load(ref string) (*domain.PlanSpec, error) {
	if ref == "" {
		ref = DefaultPlan
	}

	if builtin, ok := builtins[ref]; ok {
		return builtin(), nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q is not a builtin plan or a readable file", ErrPlanNotFound, ref)
		}
		return nil, fmt.Errorf("read plan file %s: %w", ref, err)
	}

	spec, err := engine.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse plan file %s: %w", ref, err)
	}
	return spec, nil
}

// Builtins возвращает имена встроенных планов.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}
