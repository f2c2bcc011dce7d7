package plan

import "github.com/shaiso/Provisio/internal/domain"

// Константы bootstrap-плана. URL моделей параметризуется кодом
// языка: для каждого языка публикуются свои arpa.bin и sp.model.
const (
	defaultRepoURL = "https://github.com/facebookresearch/cc_net.git"
	lmBaseURL      = "https://dl.fbaipublicfiles.com/cc_net/lm"
	lidModelURL    = "https://dl.fbaipublicfiles.com/fasttext/supervised-models/lid.176.bin"
)

// Bootstrap возвращает встроенный план подготовки окружения для
// corpus-пайплайна: клонирование, нативные зависимости, сборка,
// языковые модели, установка Python-пакета с extras.
//
// План параметризуется language (какие модели качать) и work_dir
// (куда клонировать). Каждый шаг несёт idempotency-проверку, так
// что повторный запуск после ручного вмешательства дёшев.
func Bootstrap() *domain.PlanSpec {
	return &domain.PlanSpec{
		Version:     "1",
		Name:        "bootstrap",
		Description: "Prepare a runtime environment for the corpus pipeline",
		Params: map[string]string{
			"language": "en",
			"work_dir": ".",
			"repo_url": defaultRepoURL,
		},
		Defaults: &domain.StepDefaults{
			OnFailure: domain.OnFailureAbort,
		},
		Steps: []domain.StepDef{
			{
				ID:      "clone",
				Name:    "Clone pipeline repository",
				Type:    "command",
				Command: []string{"git", "clone", "{{ .Params.repo_url }}", "{{ .Params.work_dir }}/cc_net"},
				Check: &domain.CheckDef{
					Type: "path_exists",
					Path: "{{ .Params.work_dir }}/cc_net/.git",
				},
			},
			{
				ID:      "apt_update",
				Name:    "Refresh system package index",
				Type:    "command",
				Command: []string{"sudo", "apt-get", "update"},
				// Устаревший индекс не обязательно фатален:
				// нужные пакеты могут быть уже в кэше
				OnFailure: domain.OnFailureContinue,
				Retry: &domain.RetryPolicy{
					MaxAttempts:    3,
					Backoff:        "exponential",
					InitialDelayMs: 2000,
					MaxDelayMs:     30000,
				},
			},
			{
				ID:        "apt_install",
				Name:      "Install native build dependencies",
				Type:      "command",
				DependsOn: []string{"apt_update"},
				Command: []string{
					"sudo", "apt-get", "install", "-y",
					"build-essential", "cmake", "libeigen3-dev", "libboost-all-dev", "zlib1g-dev",
				},
				Check: &domain.CheckDef{
					Type:    "command",
					Command: []string{"dpkg", "-s", "libeigen3-dev", "libboost-all-dev"},
				},
			},
			{
				ID:        "build",
				Name:      "Build native toolchain",
				Type:      "command",
				DependsOn: []string{"clone", "apt_install"},
				Command:   []string{"make"},
				Dir:       "{{ .Params.work_dir }}/cc_net",
				Check: &domain.CheckDef{
					Type: "path_exists",
					Path: "{{ .Params.work_dir }}/cc_net/bin",
				},
			},
			{
				ID:        "fetch_lid",
				Name:      "Download language identification model",
				Type:      "download",
				DependsOn: []string{"clone"},
				URL:       lidModelURL,
				Dest:      "{{ .Params.work_dir }}/cc_net/bin/lid.bin",
				Check: &domain.CheckDef{
					Type: "file_nonempty",
					Path: "{{ .Params.work_dir }}/cc_net/bin/lid.bin",
				},
			},
			{
				ID:        "fetch_lm",
				Name:      "Download language model",
				Type:      "download",
				DependsOn: []string{"clone"},
				URL:       lmBaseURL + "/{{ .Params.language }}.arpa.bin",
				Dest:      "{{ .Params.work_dir }}/cc_net/data/lm_sp/{{ .Params.language }}.arpa.bin",
				Check: &domain.CheckDef{
					Type: "file_nonempty",
					Path: "{{ .Params.work_dir }}/cc_net/data/lm_sp/{{ .Params.language }}.arpa.bin",
				},
			},
			{
				ID:        "fetch_sp",
				Name:      "Download sentencepiece model",
				Type:      "download",
				DependsOn: []string{"clone"},
				URL:       lmBaseURL + "/{{ .Params.language }}.sp.model",
				Dest:      "{{ .Params.work_dir }}/cc_net/data/lm_sp/{{ .Params.language }}.sp.model",
				Check: &domain.CheckDef{
					Type: "file_nonempty",
					Path: "{{ .Params.work_dir }}/cc_net/data/lm_sp/{{ .Params.language }}.sp.model",
				},
			},
			{
				ID:        "pip_install",
				Name:      "Install pipeline package with extras",
				Type:      "command",
				DependsOn: []string{"build", "fetch_lid", "fetch_lm", "fetch_sp"},
				Command:   []string{"python3", "-m", "pip", "install", "-e", ".[getting_started]"},
				Dir:       "{{ .Params.work_dir }}/cc_net",
				Check: &domain.CheckDef{
					Type:    "command",
					Command: []string{"python3", "-c", "import cc_net"},
				},
			},
		},
	}
}
