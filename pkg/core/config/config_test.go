package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fre.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"FRE_CONFIG", "FRE_CATALOG_URL", "FRE_ENRICHMENT_URL", "FRE_HTTP_TIMEOUT", "FRE_SUMMARY_BACKEND", "FRE_PROVIDER", "DATABASE_URL", "PORT"} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if d, _ := cfg.HTTPTimeout(); d != 30*time.Second {
		t.Errorf("expected 30s default timeout, got %v", d)
	}
	if r, _ := cfg.CatalogDelimiter(); r != ';' {
		t.Errorf("expected ';' delimiter, got %q", r)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
catalog:
  delimiter: ","
portal:
  timeout: 10
  sections:
    sections:
      "8.2": "8110"
summary:
  backend: llm
  llm:
    active_provider: deepseek
`)
	t.Setenv("FRE_PROVIDER", "qwen")
	t.Setenv("PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d, _ := cfg.HTTPTimeout(); d != 10*time.Second {
		t.Errorf("bare number should be seconds, got %v", d)
	}
	if cfg.Summary.Backend != BackendLLM || cfg.Summary.LLM.ActiveProvider != "qwen" {
		t.Errorf("unexpected summary config %+v", cfg.Summary)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("expected env port, got %s", cfg.Server.Port)
	}
	if cfg.Portal.Sections.Sections["8.2"] != "8110" || cfg.Portal.Sections.Sections["8.4"] != "8120" {
		t.Errorf("expected file sections merged with defaults, got %v", cfg.Portal.Sections.Sections)
	}
	if opts := cfg.LoaderOptions(); opts.Delimiter != ',' {
		t.Errorf("expected ',' delimiter, got %q", opts.Delimiter)
	}
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	wd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(wd) })
	os.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Summary.Backend != BackendExtractive {
		t.Errorf("expected default backend, got %s", cfg.Summary.Backend)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing file should fail")
	}
	if _, err := Load(writeConfig(t, "portal: [")); err == nil {
		t.Error("expected yaml error")
	}
	if _, err := Load(writeConfig(t, "portal:\n  timeout: soon\n")); err == nil {
		t.Error("expected timeout error")
	}
	if _, err := Load(writeConfig(t, "summary:\n  backend: magic\n")); err == nil {
		t.Error("expected backend error")
	}
}

func TestRepoConfigFileLoads(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("..", "..", "..", "config", "fre.yaml"))
	if err != nil {
		t.Fatalf("config/fre.yaml: %v", err)
	}
	if cfg.Portal.Sections.Sections["8.4"] != "8120" {
		t.Errorf("unexpected sections %v", cfg.Portal.Sections.Sections)
	}
}
