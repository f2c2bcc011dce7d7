package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Provisio/internal/domain"
	"github.com/shaiso/Provisio/internal/engine"
)

// --- CommandExecutor Tests ---

func TestCommandExecutor_Success(t *testing.T) {
	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "echo",
		Type:    "command",
		Command: []string{"sh", "-c", "echo hello"},
	}

	result, err := e.Execute(context.Background(), step, engine.NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Succeeded() {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Output, "hello") {
		t.Errorf("expected output to contain hello, got %q", result.Output)
	}
}

func TestCommandExecutor_NonZeroExit(t *testing.T) {
	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "fail",
		Type:    "command",
		Command: []string{"sh", "-c", "echo oops >&2; exit 3"},
	}

	result, err := e.Execute(context.Background(), step, engine.NewContext(nil))

	// Ненулевой код выхода — не ошибка Execute
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
	if !strings.Contains(result.Output, "oops") {
		t.Errorf("stderr should be captured, got %q", result.Output)
	}
}

func TestCommandExecutor_SpawnFailure(t *testing.T) {
	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "ghost",
		Type:    "command",
		Command: []string{"provisio-no-such-binary-test"},
	}

	_, err := e.Execute(context.Background(), step, engine.NewContext(nil))
	if !errors.Is(err, ErrEnvironment) {
		t.Errorf("expected ErrEnvironment, got %v", err)
	}
}

func TestCommandExecutor_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "slow",
		Type:    "command",
		Command: []string{"sh", "-c", "sleep 5"},
	}

	_, err := e.Execute(ctx, step, engine.NewContext(nil))
	if !errors.Is(err, ErrExecutionTimeout) {
		t.Errorf("expected ErrExecutionTimeout, got %v", err)
	}
}

func TestCommandExecutor_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "slow",
		Type:    "command",
		Command: []string{"sh", "-c", "sleep 5"},
	}

	start := time.Now()
	_, err := e.Execute(ctx, step, engine.NewContext(nil))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("cancellation should kill the child process promptly")
	}
}

func TestCommandExecutor_RendersTemplates(t *testing.T) {
	tctx := engine.NewContext(map[string]string{"language": "tr"})

	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "templated",
		Type:    "command",
		Command: []string{"sh", "-c", "echo {{ .Params.language }}"},
	}

	result, err := e.Execute(context.Background(), step, tctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "tr") {
		t.Errorf("expected rendered output, got %q", result.Output)
	}
	if result.Command[2] != "echo tr" {
		t.Errorf("Result.Command should hold the rendered command, got %v", result.Command)
	}
}

func TestCommandExecutor_Dir(t *testing.T) {
	dir := t.TempDir()

	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "pwd",
		Type:    "command",
		Command: []string{"sh", "-c", "pwd"},
		Dir:     dir,
	}

	result, err := e.Execute(context.Background(), step, engine.NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, dir) {
		t.Errorf("expected command to run in %s, got %q", dir, result.Output)
	}
}

func TestCommandExecutor_ExtraEnv(t *testing.T) {
	e := &CommandExecutor{}
	step := &domain.StepDef{
		ID:      "env",
		Type:    "command",
		Command: []string{"sh", "-c", "echo $BOOTSTRAP_LANG"},
		Env:     []string{"BOOTSTRAP_LANG={{ .Params.language }}"},
	}

	result, err := e.Execute(context.Background(), step, engine.NewContext(map[string]string{"language": "tr"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "tr") {
		t.Errorf("expected env var to be set, got %q", result.Output)
	}
}

// --- Registry Tests ---

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Get("command"); err != nil {
		t.Errorf("command executor should be registered: %v", err)
	}
	if _, err := r.Get("download"); err != nil {
		t.Errorf("download executor should be registered: %v", err)
	}
	if _, err := r.Get("teleport"); !errors.Is(err, ErrUnknownStepType) {
		t.Errorf("expected ErrUnknownStepType, got %v", err)
	}
}
