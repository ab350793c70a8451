package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// AI providers.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	AI     AIConfig          `yaml:"ai"`
	Import ImportConfig      `yaml:"import"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.AI.Validate(); err != nil {
		return err
	}
	return c.Import.Validate()
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
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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

// AIConfig holds language model and embedding configuration.
//
// Provider selects the backend:
//   - "local" (default): an OpenAI-compatible local server such as Ollama.
//   - "openai": the hosted OpenAI API; the key is read from APIKeyEnv.
type AIConfig struct {
	Provider           string  `yaml:"provider"`
	APIKeyEnv          string  `yaml:"api_key_env"`
	BaseURL            string  `yaml:"base_url"`
	ChatModel          string  `yaml:"chat_model"`
	EmbeddingModel     string  `yaml:"embedding_model"`
	EmbeddingDimension int     `yaml:"embedding_dimension"`
	Semantic           bool    `yaml:"semantic"`
	MaxContextNotes    int     `yaml:"max_context_notes"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float64 `yaml:"temperature"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderLocal, ProviderOpenAI)),
		validation.Field(&c.EmbeddingDimension, validation.Min(0)),
		validation.Field(&c.MaxContextNotes, validation.Min(0)),
		validation.Field(&c.MaxTokens, validation.Min(0)),
		validation.Field(&c.Temperature, validation.Min(0.0), validation.Max(2.0)),
	)
}

// ImportConfig holds Markdown import configuration. Path is optional;
// when empty the importer is disabled.
type ImportConfig struct {
	Path     string        `yaml:"path"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the import configuration.
func (c *ImportConfig) Validate() error {
	if c.Path == "" && c.Watch {
		return fmt.Errorf("import: watch enabled but path is empty")
	}
	return nil
}

// Enabled returns true when a Markdown directory is configured.
func (c *ImportConfig) Enabled() bool {
	return c.Path != ""
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
		SQLite: SQLiteConfig{
			Path: "./ansuz.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		AI: AIConfig{
			Provider:           ProviderLocal,
			APIKeyEnv:          "OPENAI_API_KEY",
			EmbeddingDimension: 384,
			MaxContextNotes:    5,
		},
	}
}
