// loader.go loads YAML configuration with credentials resolved from
// environment variables and .env files.
package assistant

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} or $VAR_NAME in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Z_][A-Z0-9_]*)`)

// LoadConfigFromFile reads and parses a YAML configuration file.
// Automatically loads .env files and expands environment variables.
func LoadConfigFromFile(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := ParseConfig([]byte(expandEnvVars(string(data))))
	if err != nil {
		return nil, err
	}

	ResolveSecrets(cfg)
	return cfg, nil
}

// ParseConfig parses YAML bytes into a Config, overlaying the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// FindConfigFile searches for config files in standard locations.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"folio.yaml",
		"folio.yml",
		"configs/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadEnvFiles loads .env files from standard locations.
// godotenv.Load does not overwrite existing env vars.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces ${VAR} and $VAR references with their values,
// leaving unset references as-is.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		var name string
		if strings.HasPrefix(match, "${") {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// ResolveSecrets fills in config secrets from environment variables when the
// config value is empty or still an unexpanded reference.
func ResolveSecrets(cfg *Config) {
	if needsSecret(cfg.API.APIKey) {
		if key := firstEnv("FOLIO_API_KEY", "OPENAI_API_KEY"); key != "" {
			cfg.API.APIKey = key
		}
	}
	if needsSecret(cfg.Mail.APIKey) {
		if key := firstEnv("FOLIO_MAIL_API_KEY", "RESEND_API_KEY"); key != "" {
			cfg.Mail.APIKey = key
		}
	}
	if needsSecret(cfg.Server.AdminPasswordHash) {
		if hash := os.Getenv("FOLIO_ADMIN_PASSWORD_HASH"); hash != "" {
			cfg.Server.AdminPasswordHash = hash
		}
	}
}

func needsSecret(value string) bool {
	return value == "" || strings.HasPrefix(value, "${") || strings.HasPrefix(value, "$")
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}
