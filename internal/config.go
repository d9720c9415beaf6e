package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/notion"
	"github.com/starford/folio/internal/snapshot"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Notion  NotionConfig      `yaml:"notion"`
	Site    SiteConfig        `yaml:"site"`
	Gate    GateConfig        `yaml:"gate"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Session SessionConfig     `yaml:"session"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration. Notion credentials are checked
// separately by ValidateSync since only the sync command needs them.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplyEnv overlays the process environment on the config.
func (c *Config) ApplyEnv() {
	c.Notion.ApplyEnv(os.Getenv)
	if v := os.Getenv("SITE_PASSWORD_HASH"); v != "" {
		c.Gate.PasswordHash = v
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port          int  `yaml:"port"`
	SecureCookies bool `yaml:"secure_cookies"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NotionConfig holds the remote content store settings.
type NotionConfig struct {
	Token         string `yaml:"token"`
	APIVersion    string `yaml:"api_version"`
	BaseURL       string `yaml:"base_url"`
	ProjectsDB    string `yaml:"projects_db"`
	AboutDB       string `yaml:"about_db"`
	VaultDB       string `yaml:"vault_db"`
	SettingsDB    string `yaml:"settings_db"`
	SortDirection string `yaml:"sort_direction"`
	// Status filters restrict a collection to pages whose property equals a value.
	ProjectsStatus StatusFilter `yaml:"projects_status"`
	AboutStatus    StatusFilter `yaml:"about_status"`
}

// StatusFilter is an optional equality filter on a select or status property.
type StatusFilter struct {
	Property string `yaml:"property"`
	Equals   string `yaml:"equals"`
}

// ApplyEnv overrides values with the environment variables used by the sync job.
func (c *NotionConfig) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Token, "NOTION_TOKEN")
	set(&c.ProjectsDB, "PROJECTS_DB")
	set(&c.AboutDB, "ABOUT_DB")
	set(&c.VaultDB, "VAULT_DB")
	set(&c.SettingsDB, "SETTINGS_DB")
}

// ValidateSync reports every missing credential at once, wrapped in apperr.ErrConfig.
func (c *NotionConfig) ValidateSync() error {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"NOTION_TOKEN", c.Token},
		{"PROJECTS_DB", c.ProjectsDB},
		{"ABOUT_DB", c.AboutDB},
		{"VAULT_DB", c.VaultDB},
		{"SETTINGS_DB", c.SettingsDB},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", apperr.ErrConfig, strings.Join(missing, ", "))
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.SortDirection, validation.In("", notion.Ascending, notion.Descending)),
	); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrConfig, err)
	}
	return nil
}

// CatalogConfig maps the settings onto the extractor's sources.
func (c *NotionConfig) CatalogConfig() catalog.Config {
	return catalog.Config{
		Projects: catalog.Source{
			DatabaseID:     c.ProjectsDB,
			StatusProperty: c.ProjectsStatus.Property,
			StatusEquals:   c.ProjectsStatus.Equals,
		},
		About: catalog.Source{
			DatabaseID:     c.AboutDB,
			StatusProperty: c.AboutStatus.Property,
			StatusEquals:   c.AboutStatus.Equals,
		},
		Vault:         catalog.Source{DatabaseID: c.VaultDB},
		Settings:      catalog.Source{DatabaseID: c.SettingsDB},
		SortDirection: c.SortDirection,
	}
}

// SiteConfig locates the published site.
type SiteConfig struct {
	Root         string `yaml:"root"`
	SnapshotPath string `yaml:"snapshot_path"`
	// SnapshotURL, when set, makes the viewer fetch the snapshot over HTTP
	// instead of reading it from Root.
	SnapshotURL string `yaml:"snapshot_url"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.SnapshotPath, validation.Required),
	)
}

// GateConfig holds the locally configured credential.
type GateConfig struct {
	// PasswordHash is a lowercase hex MD5 digest. It wins over the remote
	// PASSWORD setting when set.
	PasswordHash string `yaml:"password_hash"`
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SessionConfig selects where vault authorization survives between requests.
type SessionConfig struct {
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
	Idle     time.Duration `yaml:"idle"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	if c.Backend == "" {
		c.Backend = SessionBackendMemory
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In(SessionBackendMemory, SessionBackendSQLite, SessionBackendRedis)),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
		validation.Field(&c.Idle, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	if c.Backend == SessionBackendRedis && c.RedisURL == "" {
		return errors.New("session: backend is redis but redis_url is empty")
	}
	return nil
}

// AuthConfig holds authentication configuration for the admin routes.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Notion: NotionConfig{
			APIVersion:    notion.DefaultAPIVersion,
			BaseURL:       notion.DefaultBaseURL,
			SortDirection: notion.Descending,
		},
		Site: SiteConfig{
			Root:         "./site",
			SnapshotPath: snapshot.DefaultPath,
		},
		SQLite: SQLiteConfig{
			Path: "./folio.db",
		},
		Session: SessionConfig{
			Backend: SessionBackendMemory,
			TTL:     24 * time.Hour,
			Idle:    30 * time.Minute,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
