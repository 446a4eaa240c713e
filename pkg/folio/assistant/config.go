// config.go defines all configuration for the folio backend.
package assistant

import (
	"github.com/lawrencechen/folio/pkg/folio/analytics"
	"github.com/lawrencechen/folio/pkg/folio/mail"
)

// Config holds all backend configuration.
type Config struct {
	// Name is the assistant name shown in responses.
	Name string `yaml:"name"`

	// Model is the LLM model to use (e.g. "gpt-4o-mini").
	Model string `yaml:"model"`

	// API configures the completion provider endpoint.
	API APIConfig `yaml:"api"`

	// Persona configures who the assistant speaks for.
	Persona PersonaConfig `yaml:"persona"`

	// TokenBudget caps the assembled prompt.
	TokenBudget TokenBudgetConfig `yaml:"token_budget"`

	// Mail configures outbound email delivery.
	Mail mail.Config `yaml:"mail"`

	// Analytics configures the event store.
	Analytics analytics.Config `yaml:"analytics"`

	// Digest configures the daily owner digest.
	Digest DigestConfig `yaml:"digest"`

	// Server configures the HTTP surface.
	Server ServerConfig `yaml:"server"`

	// Profile is the static content served by the pass-through endpoints.
	Profile ProfileConfig `yaml:"profile"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the completion provider.
type APIConfig struct {
	// BaseURL is the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token (usually resolved from env).
	APIKey string `yaml:"api_key"`
}

// PersonaConfig describes the site owner the assistant represents.
type PersonaConfig struct {
	// Owner is the site owner's name, used in flow prompts and overrides.
	Owner string `yaml:"owner"`

	// SystemPrompt is the persona instruction block sent to the provider.
	SystemPrompt string `yaml:"system_prompt"`

	// ResumeURL is handed out by the resume override rule.
	ResumeURL string `yaml:"resume_url"`
}

// TokenBudgetConfig caps the assembled prompt. The invariant is
// system + history + user + reserve <= ceiling; the system prompt gives way
// first, history second, the user's message never.
type TokenBudgetConfig struct {
	// Ceiling is the model context budget in tokens.
	Ceiling int `yaml:"ceiling"`

	// ResponseReserve is held back for the model's reply.
	ResponseReserve int `yaml:"response_reserve"`

	// SystemPrompt is the per-request cap on the system prompt.
	SystemPrompt int `yaml:"system_prompt"`
}

// DigestConfig configures the scheduled owner digest.
type DigestConfig struct {
	// Enabled turns the digest on/off.
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression (default: daily at 18:00).
	Schedule string `yaml:"schedule"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Address is the listen address (default ":8080").
	Address string `yaml:"address"`

	// AllowedOrigin is the CORS origin for the site frontend ("*" allows any).
	AllowedOrigin string `yaml:"allowed_origin"`

	// AdminPasswordHash is the bcrypt hash gating the admin inbox.
	AdminPasswordHash string `yaml:"admin_password_hash"`

	// MaxHistoryTurns caps the replayed history at the transport boundary.
	MaxHistoryTurns int `yaml:"max_history_turns"`

	// MaxUploadBytes caps a single uploaded file.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// ProfileConfig holds the static experiences/projects lists.
type ProfileConfig struct {
	Experiences []Experience `yaml:"experiences" json:"experiences"`
	Projects    []Project    `yaml:"projects" json:"projects"`
}

// Experience is one work-history entry.
type Experience struct {
	Company     string `yaml:"company" json:"company"`
	Title       string `yaml:"title" json:"title"`
	Period      string `yaml:"period" json:"period"`
	Description string `yaml:"description" json:"description"`
}

// Project is one portfolio project entry.
type Project struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	URL         string   `yaml:"url" json:"url"`
	Tags        []string `yaml:"tags" json:"tags"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`
}

// DefaultConfig returns the default backend configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:  "Folio",
		Model: "gpt-4o-mini",
		Persona: PersonaConfig{
			Owner: "Lawrence",
			SystemPrompt: "You are the assistant on Lawrence Chen's portfolio site. " +
				"Answer questions about his background, projects and experience. " +
				"Be friendly and concise. If a visitor wants to get in touch, " +
				"point them at the /message and /meeting commands.",
			ResumeURL: "/resume.pdf",
		},
		TokenBudget: TokenBudgetConfig{
			Ceiling:         8192,
			ResponseReserve: 1024,
			SystemPrompt:    2048,
		},
		Mail: mail.Config{
			From: "Folio <assistant@localhost>",
		},
		Analytics: analytics.Config{
			Enabled: true,
			Path:    "./data/events.db",
		},
		Digest: DigestConfig{
			Enabled:  false,
			Schedule: "0 18 * * *",
		},
		Server: ServerConfig{
			Address:         ":8080",
			AllowedOrigin:   "*",
			MaxHistoryTurns: 64,
			MaxUploadBytes:  10 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
