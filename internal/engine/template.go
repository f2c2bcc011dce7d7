package engine

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Context — контекст для рендеринга шаблонов.
//
// Это явная замена неявного глобального состояния исходного
// bootstrap-скрипта (cd, ambient shell environment): рабочая
// директория и параметры — входные данные, а не мутируемое
// состояние процесса.
//
// Используется в Go templates для доступа к данным:
//   - {{ .Params.language }}
//   - {{ .Params.work_dir }}
//   - {{ .Env.HOME }}
type Context struct {
	// Params — параметры run (из плана и флагов CLI).
	Params map[string]string `json:"params"`

	// Env — переменные окружения процесса.
	Env map[string]string `json:"env"`
}

// NewContext создаёт новый контекст с параметрами run.
// Env заполняется текущим окружением процесса.
func NewContext(params map[string]string) *Context {
	if params == nil {
		params = make(map[string]string)
	}

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	return &Context{
		Params: params,
		Env:    env,
	}
}

// Param возвращает значение параметра (пустая строка, если не задан).
func (c *Context) Param(name string) string {
	return c.Params[name]
}

// SetParam устанавливает параметр run.
func (c *Context) SetParam(name, value string) {
	c.Params[name] = value
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// default — возвращает значение по умолчанию, если второй аргумент пустой
	"default": func(def, val string) string {
		if val == "" {
			return def
		}
		return val
	},

	// join — объединяет слайс строк
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},

	// split — разбивает строку на слайс
	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},

	// contains — проверяет, содержит ли строка подстроку
	"contains": strings.Contains,

	// lower — приводит к нижнему регистру
	"lower": strings.ToLower,

	// upper — приводит к верхнему регистру
	"upper": strings.ToUpper,

	// trim — удаляет пробелы по краям
	"trim": strings.TrimSpace,

	// replace — заменяет подстроку
	"replace": strings.ReplaceAll,
}

// Render рендерит строковый шаблон с контекстом.
//
// Шаблон может содержать Go template выражения:
//
//	{{ .Params.language }}
//	{{ .Params.work_dir }}/cc_net
//	{{ .Env.HOME }}/.cache
func Render(tmpl string, ctx *Context) (string, error) {
	// Строки без шаблонных выражений возвращаются как есть
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

// RenderAll рендерит каждый элемент слайса (команду с аргументами).
func RenderAll(tmpls []string, ctx *Context) ([]string, error) {
	if len(tmpls) == 0 {
		return nil, nil
	}

	result := make([]string, len(tmpls))
	for i, tmpl := range tmpls {
		rendered, err := Render(tmpl, ctx)
		if err != nil {
			return nil, err
		}
		result[i] = rendered
	}
	return result, nil
}
