package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedTemplate(t *testing.T) {
	stages, err := LoadStageTemplate("")
	if err != nil {
		t.Fatalf("embedded template failed to load: %v", err)
	}
	if len(stages) == 0 {
		t.Fatal("embedded template must define at least one stage")
	}
	if stages[0] != "Novo contato" {
		t.Fatalf("expected first stage Novo contato, got %q", stages[0])
	}
}

func TestFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	content := "stages:\n  - Triage\n  - Booked\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	stages, err := LoadStageTemplate(path)
	if err != nil {
		t.Fatalf("override template failed to load: %v", err)
	}
	if len(stages) != 2 || stages[0] != "Triage" || stages[1] != "Booked" {
		t.Fatalf("unexpected stages: %v", stages)
	}
}

func TestEmptyTemplateRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stages.yaml")
	if err := os.WriteFile(path, []byte("stages: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadStageTemplate(path); err == nil {
		t.Fatal("expected an error for an empty template")
	}
}
