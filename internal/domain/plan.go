package domain

// Политики обработки ошибок шага.
const (
	// OnFailureAbort — остановить весь run при падении шага (default).
	OnFailureAbort = "abort"

	// OnFailureContinue — записать ошибку и продолжить выполнение.
	OnFailureContinue = "continue"
)

// PlanSpec — спецификация плана bootstrap'а.
//
// Это "программа" для Provisio — декларативное описание того,
// какие внешние операции нужно выполнить и в каком порядке.
// План не хранится нигде между запусками: он читается из файла
// (или берётся встроенный) в начале каждого run и уничтожается
// вместе с run.
type PlanSpec struct {
	// Version — версия формата спецификации (для обратной совместимости).
	Version string `json:"version,omitempty"`

	// Name — имя плана (например, "bootstrap").
	Name string `json:"name,omitempty"`

	// Description — описание назначения плана.
	Description string `json:"description,omitempty"`

	// Params — параметры плана по умолчанию.
	// Переопределяются флагами CLI (--language, --work-dir, --param).
	// Доступны в шаблонах через {{ .Params.name }}.
	Params map[string]string `json:"params,omitempty"`

	// Defaults — настройки по умолчанию для всех шагов.
	Defaults *StepDefaults `json:"defaults,omitempty"`

	// Steps — список шагов для выполнения.
	// Порядок объявления используется как tie-break при топологической
	// сортировке, поэтому порядок выполнения детерминирован.
	Steps []StepDef `json:"steps"`
}

// StepDefaults — настройки по умолчанию для шагов.
type StepDefaults struct {
	// Retry — политика повторных попыток.
	Retry *RetryPolicy `json:"retry,omitempty"`

	// TimeoutSec — таймаут выполнения в секундах.
	// 0 — без ограничения.
	TimeoutSec int `json:"timeout_sec,omitempty"`

	// OnFailure — политика обработки ошибок: "abort" или "continue".
	OnFailure string `json:"on_failure,omitempty"`
}

// StepDef — определение шага в плане.
//
// Шаг — единица внешней работы: запуск процесса или скачивание
// артефакта. Внешние инструменты (git, apt-get, make, pip) для
// Provisio непрозрачны: наблюдаются только код выхода и вывод.
type StepDef struct {
	// ID — уникальный идентификатор шага в рамках плана.
	// Используется в depends_on и в отчёте о run.
	ID string `json:"id"`

	// Name — человекочитаемое имя шага.
	Name string `json:"name,omitempty"`

	// Type — тип шага: "command", "download".
	Type string `json:"type"`

	// DependsOn — список ID шагов, от которых зависит этот шаг.
	// Зависимость удовлетворена, когда шаг достиг финального статуса:
	// SUCCEEDED, SKIPPED, либо FAILED с политикой "continue".
	DependsOn []string `json:"depends_on,omitempty"`

	// Command — команда и аргументы (для type="command").
	// Каждый элемент — Go template: {{ .Params.x }}, {{ .Env.X }}.
	Command []string `json:"command,omitempty"`

	// Dir — рабочая директория команды (шаблон).
	// Пустая строка — текущая директория процесса.
	Dir string `json:"dir,omitempty"`

	// Env — дополнительные переменные окружения KEY=VALUE (шаблоны).
	Env []string `json:"env,omitempty"`

	// URL — адрес артефакта (для type="download", шаблон).
	URL string `json:"url,omitempty"`

	// Dest — путь назначения артефакта (для type="download", шаблон).
	Dest string `json:"dest,omitempty"`

	// Check — idempotency check: если предикат истинен, шаг
	// пропускается (SKIPPED) без запуска команды.
	Check *CheckDef `json:"check,omitempty"`

	// OnFailure — политика обработки ошибки: "abort" (default) или
	// "continue". Переопределяет defaults.on_failure.
	OnFailure string `json:"on_failure,omitempty"`

	// Retry — политика повторных попыток для этого шага.
	// Переопределяет defaults.retry.
	Retry *RetryPolicy `json:"retry,omitempty"`

	// TimeoutSec — таймаут для этого шага.
	// Переопределяет defaults.timeout_sec.
	TimeoutSec int `json:"timeout_sec,omitempty"`
}

// CheckDef — предикат "эффект шага уже присутствует".
//
// Какой именно предикат подходит — свойство окружения, а не ядра:
// для clone это наличие директории, для install — успешный dpkg -s.
type CheckDef struct {
	// Type — тип проверки: "path_exists", "file_nonempty", "command".
	Type string `json:"type"`

	// Path — путь для path_exists / file_nonempty (шаблон).
	Path string `json:"path,omitempty"`

	// Command — команда-проба для type="command" (шаблоны).
	// Код выхода 0 означает "уже выполнено".
	Command []string `json:"command,omitempty"`
}

// RetryPolicy — политика повторных попыток.
type RetryPolicy struct {
	// MaxAttempts — максимальное количество попыток (включая первую).
	MaxAttempts int `json:"max_attempts,omitempty"`

	// Backoff — стратегия задержки: "fixed", "exponential".
	Backoff string `json:"backoff,omitempty"`

	// InitialDelayMs — начальная задержка в миллисекундах.
	InitialDelayMs int `json:"initial_delay_ms,omitempty"`

	// MaxDelayMs — максимальная задержка в миллисекундах.
	MaxDelayMs int `json:"max_delay_ms,omitempty"`
}

// EffectiveOnFailure возвращает политику шага с учётом defaults.
func (s *StepDef) EffectiveOnFailure(defaults *StepDefaults) string {
	if s.OnFailure != "" {
		return s.OnFailure
	}
	if defaults != nil && defaults.OnFailure != "" {
		return defaults.OnFailure
	}
	return OnFailureAbort
}

// EffectiveRetry возвращает политику retry шага с учётом defaults.
// Возвращает nil, если retry не настроен.
func (s *StepDef) EffectiveRetry(defaults *StepDefaults) *RetryPolicy {
	if s.Retry != nil {
		return s.Retry
	}
	if defaults != nil {
		return defaults.Retry
	}
	return nil
}

// EffectiveTimeoutSec возвращает таймаут шага с учётом defaults.
// 0 — таймаут не задан.
func (s *StepDef) EffectiveTimeoutSec(defaults *StepDefaults) int {
	if s.TimeoutSec > 0 {
		return s.TimeoutSec
	}
	if defaults != nil {
		return defaults.TimeoutSec
	}
	return 0
}
