package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shaiso/Provisio/internal/domain"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Summary выводит итог run'а: таблицу шагов или полный JSON.
func (o *Output) Summary(result *domain.RunResult) {
	if o.jsonMode {
		o.JSON(result)
		return
	}

	headers := []string{"STEP", "STATUS", "EXIT", "ATTEMPTS", "DURATION"}
	rows := make([][]string, len(result.Steps))
	for i, step := range result.Steps {
		exit := "-"
		if step.Status == domain.StepStatusFailed {
			exit = strconv.Itoa(step.ExitCode)
		}
		attempts := "-"
		if step.Attempts > 0 {
			attempts = strconv.Itoa(step.Attempts)
		}
		rows[i] = []string{
			step.StepID,
			string(step.Status),
			exit,
			attempts,
			formatDuration(step.Duration()),
		}
	}
	o.Table(headers, rows)
}

// Failure выводит диагностику упавшего шага в stderr: каким шагом,
// какой командой, с каким кодом выхода и что было в выводе.
func (o *Output) Failure(result *domain.RunResult) {
	step := result.Step(result.FailedAt)
	if step == nil {
		return
	}

	fmt.Fprintf(o.errW, "step %s failed", step.StepID)
	if len(step.Command) > 0 {
		fmt.Fprintf(o.errW, " (command: %s)", strings.Join(step.Command, " "))
	}
	fmt.Fprintf(o.errW, ": exit code %d\n", step.ExitCode)

	if step.Error != "" {
		fmt.Fprintln(o.errW, step.Error)
	}
	if step.Output != "" {
		fmt.Fprintln(o.errW, "--- captured output ---")
		fmt.Fprintln(o.errW, strings.TrimRight(step.Output, "\n"))
	}
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Truncate(time.Millisecond).String()
}
