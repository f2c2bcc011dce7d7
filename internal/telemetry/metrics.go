package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Метрики выполнения шагов.
//
// Долгие bootstrap'ы (нативная сборка, скачивание моделей) могут
// идти десятки минут — /metrics позволяет наблюдать прогресс
// снаружи, пока run не завершился.
var (
	// StepsTotal — количество завершённых шагов по статусам.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "provisio",
		Name:      "steps_total",
		Help:      "Completed plan steps by terminal status.",
	}, []string{"status"})

	// StepDuration — длительность выполнения шагов.
	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "provisio",
		Name:      "step_duration_seconds",
		Help:      "Wall-clock duration of executed steps.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
	}, []string{"step"})

	// RunInfo — информация о текущем run (1, пока run идёт).
	RunInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "provisio",
		Name:      "run_info",
		Help:      "Currently executing run (1 while in progress).",
	}, []string{"run_id", "plan"})
)

// ObserveStep записывает метрики завершённого шага.
func ObserveStep(stepID, status string, duration time.Duration) {
	StepsTotal.WithLabelValues(status).Inc()
	if duration > 0 {
		StepDuration.WithLabelValues(stepID).Observe(duration.Seconds())
	}
}

// ServeMetrics поднимает HTTP-сервер с /metrics и /healthz на addr
// и останавливает его при отмене ctx.
//
// Сервер живёт только пока идёт run — это CLI, а не демон.
func ServeMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
}
