// Provisio — one-shot оркестратор bootstrap-планов: готовит
// окружение для corpus-пайплайна, последовательно выполняя
// внешние операции (клонирование, системные пакеты, сборка,
// загрузка моделей) с контролем порядка и идемпотентности.
//
// Использование:
//
//	provisio [--json] <command> [PLAN] [flags]
//
// Команды:
//
//	run       Выполнить план
//	validate  Проверить план без выполнения
//	graph     Показать порядок выполнения
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaiso/Provisio/internal/cli"
	"github.com/shaiso/Provisio/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// .env — опционален: локальные прогоны задают LOG_LEVEL и
	// прокси-переменные без экспорта в shell
	_ = godotenv.Load()

	logger := telemetry.SetupLogger()

	// graceful shutdown: SIGINT/SIGTERM убивает текущий шаг
	// и не даёт стартовать следующим
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "provisio",
		Short:         "Provisio — environment bootstrap orchestrator",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(logger, outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewGraphCmd(outputFn),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
