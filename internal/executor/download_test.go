package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// --- DownloadExecutor Tests ---

func TestDownloadExecutor_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("model-bytes"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "lm_sp", "tr.arpa.bin")

	e := NewDownloadExecutor()
	step := &domain.StepDef{
		ID:   "fetch_lm",
		Type: "download",
		URL:  server.URL + "/{{ .Params.language }}.arpa.bin",
		Dest: dest,
	}

	result, err := e.Execute(context.Background(), step, engine.NewContext(map[string]string{"language": "tr"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected success, got exit code %d: %s", result.ExitCode, result.Output)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("dest file should exist: %v", err)
	}
	if string(data) != "model-bytes" {
		t.Errorf("unexpected file content: %q", data)
	}

	// Временный файл убран
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Error("partial file should not remain after success")
	}
}

func TestDownloadExecutor_NotFound(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")

	e := NewDownloadExecutor()
	step := &domain.StepDef{ID: "fetch", Type: "download", URL: server.URL, Dest: dest}

	result, err := e.Execute(context.Background(), step, engine.NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 404 — StepFailure, не инфраструктурная ошибка
	if result.Succeeded() {
		t.Error("expected failure for HTTP 404")
	}
	if !strings.Contains(result.Output, "404") {
		t.Errorf("output should mention the status, got %q", result.Output)
	}

	// 4xx не ретраится
	if requests != 1 {
		t.Errorf("expected exactly 1 request for 404, got %d", requests)
	}

	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("dest file should not exist after failed download")
	}
}

func TestDownloadExecutor_RetriesServerErrors(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")

	e := &DownloadExecutor{client: &http.Client{}, attempts: 3, delay: time.Millisecond}
	step := &domain.StepDef{ID: "fetch", Type: "download", URL: server.URL, Dest: dest}

	result, err := e.Execute(context.Background(), step, engine.NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Fatalf("expected success after retries, got: %s", result.Output)
	}
	if requests != 3 {
		t.Errorf("expected 3 requests, got %d", requests)
	}
}

func TestDownloadExecutor_ConnectionRefused(t *testing.T) {
	// Закрытый сервер: connection refused на каждую попытку
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	dest := filepath.Join(t.TempDir(), "model.bin")

	e := &DownloadExecutor{client: &http.Client{}, attempts: 2, delay: time.Millisecond}
	step := &domain.StepDef{ID: "fetch", Type: "download", URL: url, Dest: dest}

	result, err := e.Execute(context.Background(), step, engine.NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded() {
		t.Error("expected failure for unreachable server")
	}
}
