package engine

import (
	"errors"
	"testing"
)

func TestRender_PlainString(t *testing.T) {
	ctx := NewContext(nil)

	got, err := Render("apt-get update", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "apt-get update" {
		t.Errorf("expected unchanged string, got %q", got)
	}
}

func TestRender_Params(t *testing.T) {
	ctx := NewContext(map[string]string{
		"language": "tr",
		"work_dir": "/opt/corpus",
	})

	got, err := Render("{{ .Params.work_dir }}/lm_sp/{{ .Params.language }}.arpa.bin", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/opt/corpus/lm_sp/tr.arpa.bin" {
		t.Errorf("unexpected result: %q", got)
	}
}

func TestRender_Funcs(t *testing.T) {
	ctx := NewContext(map[string]string{"language": ""})

	got, err := Render(`{{ default "en" .Params.language }}`, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "en" {
		t.Errorf("expected default value en, got %q", got)
	}
}

func TestRender_ParseError(t *testing.T) {
	ctx := NewContext(nil)

	_, err := Render("{{ .Params.language", ctx)
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("expected ErrTemplateParse, got %v", err)
	}
}

func TestRenderAll_Command(t *testing.T) {
	ctx := NewContext(map[string]string{"work_dir": "/opt/corpus"})

	got, err := RenderAll([]string{"git", "clone", "url", "{{ .Params.work_dir }}/cc_net"}, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[3] != "/opt/corpus/cc_net" {
		t.Errorf("unexpected arg: %q", got[3])
	}
}

func TestRenderAll_Empty(t *testing.T) {
	got, err := RenderAll(nil, NewContext(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
