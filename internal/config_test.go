package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/folio/internal/apperr"
	pkgconfig "github.com/starford/folio/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSessionConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     SessionConfig
		wantErr bool
	}{
		{"empty defaults to memory", SessionConfig{}, false},
		{"sqlite", SessionConfig{Backend: SessionBackendSQLite}, false},
		{"redis with url", SessionConfig{Backend: SessionBackendRedis, RedisURL: "redis://localhost:6379/0"}, false},
		{"redis without url", SessionConfig{Backend: SessionBackendRedis}, true},
		{"unknown backend", SessionConfig{Backend: "memcached"}, true},
		{"negative ttl", SessionConfig{TTL: -time.Second}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNotionConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		"NOTION_TOKEN": "secret_x",
		"PROJECTS_DB":  "p",
		"ABOUT_DB":     "a",
		"VAULT_DB":     " v ",
		"SETTINGS_DB":  "",
	}
	cfg := NotionConfig{SettingsDB: "from-yaml"}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Token != "secret_x" || cfg.VaultDB != "v" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SettingsDB != "from-yaml" {
		t.Error("empty env var must not clear a configured value")
	}
	if err := cfg.ValidateSync(); err != nil {
		t.Errorf("ValidateSync: %v", err)
	}
}

func TestNotionConfig_ValidateSyncListsMissing(t *testing.T) {
	cfg := NotionConfig{Token: "t", AboutDB: "a"}
	err := cfg.ValidateSync()
	if !errors.Is(err, apperr.ErrConfig) {
		t.Fatalf("err = %v, want ErrConfig", err)
	}
	for _, want := range []string{"PROJECTS_DB", "VAULT_DB", "SETTINGS_DB"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not name %s", err, want)
		}
	}
	if strings.Contains(err.Error(), "NOTION_TOKEN") {
		t.Error("present token reported as missing")
	}

	full := NotionConfig{Token: "t", ProjectsDB: "p", AboutDB: "a", VaultDB: "v", SettingsDB: "s", SortDirection: "sideways"}
	if err := full.ValidateSync(); !errors.Is(err, apperr.ErrConfig) {
		t.Errorf("bad sort direction err = %v", err)
	}
}

func TestNotionConfig_CatalogConfig(t *testing.T) {
	cfg := NotionConfig{
		ProjectsDB:     "p",
		AboutDB:        "a",
		VaultDB:        "v",
		SettingsDB:     "s",
		SortDirection:  "ascending",
		ProjectsStatus: StatusFilter{Property: "Status", Equals: "Published"},
	}
	cc := cfg.CatalogConfig()
	if cc.Projects.DatabaseID != "p" || cc.Projects.StatusEquals != "Published" || cc.Settings.DatabaseID != "s" {
		t.Errorf("catalog config = %+v", cc)
	}
	if cc.About.StatusProperty != "" {
		t.Error("about has no status filter configured")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("FOLIO_TEST_ROOT", dir)
	yaml := `
app:
  log_level: debug
  http:
    port: 9090
site:
  root: ${FOLIO_TEST_ROOT}/public
session:
  backend: sqlite
  idle: 5m
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.Site.Root != dir+"/public" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Session.Idle != 5*time.Minute || cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Site.SnapshotPath != "data/notion-data.json" {
		t.Errorf("default snapshot path lost: %q", cfg.Site.SnapshotPath)
	}
}

func TestFullConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	cfg.Auth.Mode = "token"
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
