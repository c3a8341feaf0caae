package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flixpense/expense-ledger-go/internal/config"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# local overrides\n\nSTORE_BACKEND=memory\nFILE_STORE_DIR=\"/tmp/ledger\"\nmalformed line\nLOG_LEVEL=debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}

	t.Setenv("STORE_BACKEND", "remote") // environment wins
	t.Setenv("FILE_STORE_DIR", "")
	t.Setenv("LOG_LEVEL", "")

	if err := config.LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	if got := os.Getenv("STORE_BACKEND"); got != "remote" {
		t.Errorf("existing env var overridden: %q", got)
	}
	if got := os.Getenv("FILE_STORE_DIR"); got != "/tmp/ledger" {
		t.Errorf("quotes not stripped: %q", got)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "debug" {
		t.Errorf("value not loaded: %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
