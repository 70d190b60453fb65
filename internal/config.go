package internal

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/orgtasks/internal/models"
	"github.com/starford/orgtasks/internal/taskservice"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Document DocumentConfig    `yaml:"document"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Cache    CacheConfig       `yaml:"cache"`
	Tasks    TasksConfig       `yaml:"tasks"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Document.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Tasks.Validate()
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
	Port int `yaml:"port"`
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

// DocumentConfig locates the task document.
//
// Lock additionally takes an advisory file lock around every edit, for
// setups where another process (an editor plugin, a second instance)
// rewrites the same file.
type DocumentConfig struct {
	Path string `yaml:"path"`
	Lock bool   `yaml:"lock"`
}

// Validate validates the document configuration.
func (c *DocumentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// Dir returns the directory holding the document.
func (c *DocumentConfig) Dir() string { return filepath.Dir(c.Path) }

// Name returns the document file name.
func (c *DocumentConfig) Name() string { return filepath.Base(c.Path) }

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

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
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

// CacheConfig controls eviction of listing snapshots and comment sessions.
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Second)),
	)
}

// TasksConfig controls how new tasks are written and how listings behave.
type TasksConfig struct {
	HeadingLevel int    `yaml:"heading_level"`
	DefaultState string `yaml:"default_state"`
	// DefaultScheduledDays schedules new tasks N days out when the text
	// carries no date. Nil leaves them unscheduled.
	DefaultScheduledDays *int   `yaml:"default_scheduled_days"`
	IncludeTimestamp     bool   `yaml:"include_timestamp"`
	ParseSpecialSyntax   bool   `yaml:"parse_special_syntax"`
	Source               string `yaml:"source"`
	ListLimit            int    `yaml:"list_limit"`
}

// Validate validates the tasks configuration.
func (c *TasksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HeadingLevel, validation.Required, validation.Min(1), validation.Max(6)),
		validation.Field(&c.DefaultState, validation.Required, validation.By(validState)),
		validation.Field(&c.DefaultScheduledDays, validation.Min(0)),
		validation.Field(&c.ListLimit, validation.Required, validation.Min(1)),
	)
}

func validState(value interface{}) error {
	s, _ := value.(string)
	if !models.State(s).Valid() {
		return fmt.Errorf("must be one of %v", models.States)
	}
	return nil
}

// Settings converts the config into service settings.
func (c *TasksConfig) Settings() taskservice.Settings {
	return taskservice.Settings{
		HeadingLevel:         c.HeadingLevel,
		DefaultState:         models.State(c.DefaultState),
		DefaultScheduledDays: c.DefaultScheduledDays,
		IncludeTimestamp:     c.IncludeTimestamp,
		ParseSpecialSyntax:   c.ParseSpecialSyntax,
		Source:               c.Source,
		ListLimit:            c.ListLimit,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	scheduledDays := 0
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Document: DocumentConfig{
			Path: "./tasks.org",
		},
		SQLite: SQLiteConfig{
			Path: "./orgtasks.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Cache: CacheConfig{
			TTL:           time.Hour,
			SweepInterval: 30 * time.Minute,
		},
		Tasks: TasksConfig{
			HeadingLevel:         2,
			DefaultState:         string(models.StateTodo),
			DefaultScheduledDays: &scheduledDays,
			IncludeTimestamp:     true,
			ParseSpecialSyntax:   true,
			Source:               "API",
			ListLimit:            20,
		},
	}
}
