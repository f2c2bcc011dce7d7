package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// Ошибки проверок.
var (
	// ErrUnknownCheckType — тип проверки не найден в реестре.
	ErrUnknownCheckType = errors.New("unknown check type")
)

// Таймаут команды-пробы: проба должна быть дешёвой.
const probeTimeout = 30 * time.Second

// Check — предикат "эффект шага уже присутствует в окружении".
//
// Истинный предикат позволяет пропустить шаг (SKIPPED) без запуска
// команды — это делает повторный запуск плана дешёвым и безопасным.
// Ошибка проверки не означает "не выполнено": оркестратор трактует
// её консервативно и выполняет шаг.
type Check interface {
	// Type возвращает тип проверки.
	Type() string

	// Satisfied возвращает true, если эффект шага уже присутствует.
	Satisfied(ctx context.Context, def *domain.CheckDef, tctx *engine.Context) (bool, error)
}

// Registry — реестр проверок по типу.
type Registry struct {
	checks map[string]Check
}

// NewRegistry создаёт реестр со стандартными проверками:
// path_exists, file_nonempty, command.
func NewRegistry() *Registry {
	r := &Registry{checks: make(map[string]Check)}
	r.Register(&PathExistsCheck{})
	r.Register(&FileNonEmptyCheck{})
	r.Register(&CommandCheck{})
	return r
}

// Register добавляет проверку в реестр.
func (r *Registry) Register(check Check) {
	r.checks[check.Type()] = check
}

// Get возвращает проверку по типу.
func (r *Registry) Get(checkType string) (Check, error) {
	check, ok := r.checks[checkType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCheckType, checkType)
	}
	return check, nil
}

// Satisfied вычисляет предикат def через зарегистрированную проверку.
func (r *Registry) Satisfied(ctx context.Context, def *domain.CheckDef, tctx *engine.Context) (bool, error) {
	check, err := r.Get(def.Type)
	if err != nil {
		return false, err
	}
	return check.Satisfied(ctx, def, tctx)
}

// PathExistsCheck — проверка "path_exists": путь существует
// (файл или директория). Типичный предикат для clone-шага.
type PathExistsCheck struct{}

// Type возвращает тип проверки.
func (c *PathExistsCheck) Type() string { return "path_exists" }

// Satisfied проверяет существование пути.
func (c *PathExistsCheck) Satisfied(_ context.Context, def *domain.CheckDef, tctx *engine.Context) (bool, error) {
	path, err := engine.Render(def.Path, tctx)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FileNonEmptyCheck — проверка "file_nonempty": файл существует и
// не пуст. Типичный предикат для download-шага — оборванная загрузка
// не должна считаться выполненной.
type FileNonEmptyCheck struct{}

// Type возвращает тип проверки.
func (c *FileNonEmptyCheck) Type() string { return "file_nonempty" }

// Satisfied проверяет наличие непустого файла.
func (c *FileNonEmptyCheck) Satisfied(_ context.Context, def *domain.CheckDef, tctx *engine.Context) (bool, error) {
	path, err := engine.Render(def.Path, tctx)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular() && info.Size() > 0, nil
}

// CommandCheck — проверка "command": команда-проба завершилась
// с кодом 0. Типичный предикат для установленных пакетов
// (dpkg -s libeigen3-dev, python3 -c "import cc_net").
type CommandCheck struct{}

// Type возвращает тип проверки.
func (c *CommandCheck) Type() string { return "command" }

// Satisfied запускает команду-пробу и смотрит на код выхода.
// Невозможность запустить пробу — ошибка, а не "не выполнено".
func (c *CommandCheck) Satisfied(ctx context.Context, def *domain.CheckDef, tctx *engine.Context) (bool, error) {
	command, err := engine.RenderAll(def.Command, tctx)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
