//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("should apply defaults over a minimal file", func(t *testing.T) {
		path := writeConfig(t, `
database:
  url: postgres://localhost/app
ai:
  base_url: https://ai.example.com
`)
		cfg, err := LoadConfig(path, true)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Admin.Port != 8081 {
			t.Errorf("expected default admin port, got %d", cfg.Admin.Port)
		}
		if cfg.Jobs.Workers != 4 || cfg.Jobs.PollInterval != 3*time.Second {
			t.Errorf("unexpected job defaults: %+v", cfg.Jobs)
		}
		if cfg.AI.RequestTimeout != 60*time.Second || cfg.AI.MaxTextLength != 2000 {
			t.Errorf("unexpected ai defaults: %+v", cfg.AI)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("unexpected log defaults: %+v", cfg.Log)
		}
		if !cfg.Runtime.Dev {
			t.Error("expected the dev flag to be carried into runtime config")
		}
	})

	t.Run("should keep explicit values", func(t *testing.T) {
		path := writeConfig(t, `
admin:
  port: 9000
database:
  url: postgres://localhost/app
ai:
  base_url: https://ai.example.com
  max_text_length: 500
jobs:
  workers: 2
  poll_interval: 10s
`)
		cfg, err := LoadConfig(path, false)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Admin.Port != 9000 || cfg.Jobs.Workers != 2 || cfg.Jobs.PollInterval != 10*time.Second {
			t.Errorf("explicit values were overwritten: %+v", cfg)
		}
		if cfg.AI.MaxTextLength != 500 {
			t.Errorf("expected max_text_length 500, got %d", cfg.AI.MaxTextLength)
		}
	})

	t.Run("should require the database url", func(t *testing.T) {
		path := writeConfig(t, `
ai:
  base_url: https://ai.example.com
`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Fatal("expected an error for the missing database url")
		}
	})

	t.Run("should require the ai base url", func(t *testing.T) {
		path := writeConfig(t, `
database:
  url: postgres://localhost/app
`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Fatal("expected an error for the missing ai base url")
		}
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})
}
