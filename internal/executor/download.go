package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// Параметры повторных попыток скачивания по умолчанию.
// Переопределяются RetryPolicy шага через оркестратор; эти
// значения покрывают только транзиентные сетевые сбои внутри
// одной попытки шага.
const (
	defaultDownloadAttempts = 3
	defaultDownloadDelay    = 2 * time.Second
)

// DownloadExecutor — executor для шага типа "download".
//
// Скачивает артефакт (модель языка, langid-модель) по HTTP в файл.
// Файл пишется во временное имя и переименовывается после полного
// скачивания — оборванная загрузка не оставляет повреждённого
// файла на месте назначения.
//
// Поля StepDef:
//   - url: адрес артефакта (шаблон: {{ .Params.language }})
//   - dest: путь назначения (шаблон)
type DownloadExecutor struct {
	client   *http.Client
	attempts uint
	delay    time.Duration
}

// NewDownloadExecutor создаёт DownloadExecutor с HTTP-клиентом
// по умолчанию. Таймаут всего шага задаёт оркестратор через ctx.
func NewDownloadExecutor() *DownloadExecutor {
	return &DownloadExecutor{
		client:   &http.Client{},
		attempts: defaultDownloadAttempts,
		delay:    defaultDownloadDelay,
	}
}

// Execute скачивает артефакт шага.
//
// Сетевые сбои и ответы 5xx ретраятся с backoff (транзиентные);
// 4xx — нет (повтор бессмыслен). Неудача после всех попыток —
// StepFailure: возвращается Result с ненулевым ExitCode.
func (e *DownloadExecutor) Execute(ctx context.Context, step *domain.StepDef, tctx *engine.Context) (*Result, error) {
	url, err := engine.Render(step.URL, tctx)
	if err != nil {
		return nil, err
	}

	dest, err := engine.Render(step.Dest, tctx)
	if err != nil {
		return nil, err
	}

	command := []string{"download", url, dest}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create dest dir: %v", ErrEnvironment, err)
	}

	retryOpts := []retry.Option{
		retry.Attempts(e.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(e.delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, errPermanent)
		}),
	}

	var written int64
	err = retry.Do(func() error {
		n, err := e.fetch(ctx, url, dest)
		written = n
		return err
	}, retryOpts...)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return &Result{ExitCode: -1, Command: command},
					fmt.Errorf("%w: %s", ErrExecutionTimeout, step.ID)
			}
			return &Result{ExitCode: -1, Command: command}, ctxErr
		}

		return &Result{
			ExitCode: 1,
			Output:   fmt.Sprintf("%s: %v", url, err),
			Command:  command,
		}, nil
	}

	return &Result{
		ExitCode: 0,
		Output:   fmt.Sprintf("downloaded %d bytes to %s", written, dest),
		Command:  command,
	}, nil
}

// errPermanent помечает ошибки, по которым повтор бессмыслен (4xx).
var errPermanent = errors.New("permanent download error")

// fetch выполняет одну попытку скачивания: GET → временный файл → rename.
func (e *DownloadExecutor) fetch(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errPermanent, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return 0, fmt.Errorf("%w: HTTP %d", ErrDownload, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("%w: HTTP %d", errPermanent, resp.StatusCode)
	}

	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errPermanent, err)
	}

	written, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return written, fmt.Errorf("%w: %v", ErrDownload, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return written, fmt.Errorf("%w: %v", errPermanent, err)
	}

	return written, nil
}
