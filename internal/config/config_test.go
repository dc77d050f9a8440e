package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dhansen/plenarycrawl/internal/config"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}

	if cfg.General.DBHost != "localhost" {
		t.Errorf("expected default dbhost localhost, got %q", cfg.General.DBHost)
	}
	if cfg.Downloader.Instances != 4 {
		t.Errorf("expected default downloader instances 4, got %d", cfg.Downloader.Instances)
	}
	if cfg.Downloader.RetryAttempts != 3 {
		t.Errorf("expected default retry attempts 3, got %d", cfg.Downloader.RetryAttempts)
	}
	if cfg.Supervisor.StartTimeout != 3*time.Second {
		t.Errorf("expected default start timeout 3s, got %v", cfg.Supervisor.StartTimeout)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
general:
  dbhost: db.internal
  dbname: plenarycrawl_test
downloader:
  instances: 7
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) returned error: %v", path, err)
	}

	if cfg.General.DBHost != "db.internal" {
		t.Errorf("expected dbhost from file, got %q", cfg.General.DBHost)
	}
	if cfg.General.DBName != "plenarycrawl_test" {
		t.Errorf("expected dbname from file, got %q", cfg.General.DBName)
	}
	if cfg.Downloader.Instances != 7 {
		t.Errorf("expected instances from file, got %d", cfg.Downloader.Instances)
	}
	// unset sections still fall back to defaults
	if cfg.Indexer.ESIndexname != "plenarycrawl" {
		t.Errorf("expected default indexer name, got %q", cfg.Indexer.ESIndexname)
	}
}

func TestLoad_EnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("PLENARYCRAWL_GENERAL_DBHOST", "env-host")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.General.DBHost != "env-host" {
		t.Errorf("expected env override, got %q", cfg.General.DBHost)
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("expected a missing config file to fall back to defaults, got error: %v", err)
	}
}

func TestGeneralConfig_DSN(t *testing.T) {
	g := config.GeneralConfig{
		DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: 5432, DBName: "d",
	}
	want := "postgres://u:p@h:5432/d"
	if got := g.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
