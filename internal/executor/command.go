package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// CommandExecutor — executor для шага типа "command".
//
// Запускает внешний процесс (git, apt-get, make, pip) и наблюдает
// только код выхода и объединённый вывод — внутренности внешнего
// инструмента непрозрачны. Частичные эффекты упавшей команды не
// откатываются: системные установочные операции нетранзакционны.
//
// Поля StepDef:
//   - command: команда и аргументы (шаблоны)
//   - dir: рабочая директория (шаблон)
//   - env: дополнительные переменные окружения KEY=VALUE (шаблоны)
type CommandExecutor struct{}

// Execute запускает команду шага.
//
// Ненулевой код выхода — не ошибка Execute: возвращается Result
// с кодом и выводом, решение о судьбе run принимает оркестратор.
// Ошибка возвращается только если команду не удалось запустить
// (ErrEnvironment), попытка превысила таймаут (ErrExecutionTimeout)
// или контекст отменён.
func (e *CommandExecutor) Execute(ctx context.Context, step *domain.StepDef, tctx *engine.Context) (*Result, error) {
	command, err := engine.RenderAll(step.Command, tctx)
	if err != nil {
		return nil, err
	}

	dir, err := engine.Render(step.Dir, tctx)
	if err != nil {
		return nil, err
	}

	extraEnv, err := engine.RenderAll(step.Env, tctx)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	out, runErr := cmd.CombinedOutput()
	output := truncateOutput(out)

	if runErr == nil {
		return &Result{ExitCode: 0, Output: output, Command: command}, nil
	}

	// Таймаут и отмена: процесс убит из-за контекста
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &Result{ExitCode: -1, Output: output, Command: command},
				fmt.Errorf("%w: %s", ErrExecutionTimeout, step.ID)
		}
		return &Result{ExitCode: -1, Output: output, Command: command}, ctxErr
	}

	// Команда запустилась, но завершилась с ненулевым кодом
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return &Result{
			ExitCode: exitErr.ExitCode(),
			Output:   output,
			Command:  command,
		}, nil
	}

	// Команду не удалось запустить: нет исполняемого файла, нет прав.
	// Осмысленного кода выхода и вывода нет.
	return nil, fmt.Errorf("%w: %v: %v", ErrEnvironment, command[0], runErr)
}
