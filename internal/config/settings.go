package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// DefaultGitURL is the upstream CMake repository carrying the Help tree.
const DefaultGitURL = "https://gitlab.kitware.com/cmake/cmake.git"

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DocsSettings configuration for the CMake documentation source
type DocsSettings struct {
	SourceDir    string        `mapstructure:"source_dir"`
	GitURL       string        `mapstructure:"git_url"`
	BaseDir      string        `mapstructure:"base_dir"`
	Sections     []string      `mapstructure:"sections"`
	FilePattern  string        `mapstructure:"file_pattern"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	SyncTimeout  time.Duration `mapstructure:"sync_timeout"`
	MaxFileSize  int64         `mapstructure:"max_file_size"`
	MaxResults   int           `mapstructure:"max_results"`
	Watch        bool          `mapstructure:"watch"`
}

// Settings application settings
type Settings struct {
	Transport string       `mapstructure:"transport"`
	Host      string       `mapstructure:"host"`
	Port      int          `mapstructure:"port"`
	LogLevel  string       `mapstructure:"log_level"`
	Auth      AuthSettings `mapstructure:"auth"`
	Docs      DocsSettings `mapstructure:"docs"`
}

// DefaultSections returns the Help sections scanned out of the box.
func DefaultSections() []string {
	return []string{
		"command",
		"variable",
		"envvar",
		"policy",
		"prop_tgt",
		"prop_dir",
		"prop_sf",
		"prop_test",
		"prop_gbl",
		"module",
		"generator",
	}
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("auth.type", AuthTypeNone)

	// Docs defaults
	v.SetDefault("docs.source_dir", "")
	v.SetDefault("docs.git_url", DefaultGitURL)
	v.SetDefault("docs.base_dir", defaultDocsBaseDir())
	v.SetDefault("docs.sections", DefaultSections())
	v.SetDefault("docs.file_pattern", "*.rst")
	v.SetDefault("docs.sync_interval", 24*time.Hour)
	v.SetDefault("docs.sync_timeout", 120*time.Second)
	v.SetDefault("docs.max_file_size", int64(256*1024)) // 256KB
	v.SetDefault("docs.max_results", 20)
	v.SetDefault("docs.watch", false)

	// Environment variables
	v.SetEnvPrefix("CMAKE_DOCS_MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("auth.type", "CMAKE_DOCS_MCP_AUTH_TYPE")
	_ = v.BindEnv("auth.basic.username", "CMAKE_DOCS_MCP_AUTH_BASIC_USERNAME")
	_ = v.BindEnv("auth.basic.password", "CMAKE_DOCS_MCP_AUTH_BASIC_PASSWORD")
	_ = v.BindEnv("auth.api_keys", "CMAKE_DOCS_MCP_AUTH_API_KEYS")

	// Docs env var bindings
	_ = v.BindEnv("docs.source_dir", "CMAKE_DOCS_MCP_DOCS_SOURCE_DIR")
	_ = v.BindEnv("docs.git_url", "CMAKE_DOCS_MCP_DOCS_GIT_URL")
	_ = v.BindEnv("docs.base_dir", "CMAKE_DOCS_MCP_DOCS_BASE_DIR")
	_ = v.BindEnv("docs.sections", "CMAKE_DOCS_MCP_DOCS_SECTIONS")
	_ = v.BindEnv("docs.file_pattern", "CMAKE_DOCS_MCP_DOCS_FILE_PATTERN")
	_ = v.BindEnv("docs.sync_interval", "CMAKE_DOCS_MCP_DOCS_SYNC_INTERVAL")
	_ = v.BindEnv("docs.sync_timeout", "CMAKE_DOCS_MCP_DOCS_SYNC_TIMEOUT")
	_ = v.BindEnv("docs.max_file_size", "CMAKE_DOCS_MCP_DOCS_MAX_FILE_SIZE")
	_ = v.BindEnv("docs.max_results", "CMAKE_DOCS_MCP_DOCS_MAX_RESULTS")
	_ = v.BindEnv("docs.watch", "CMAKE_DOCS_MCP_DOCS_WATCH")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("transport", flags.Lookup("transport"))
		_ = v.BindPFlag("host", flags.Lookup("host"))
		_ = v.BindPFlag("port", flags.Lookup("port"))
		_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
		_ = v.BindPFlag("auth.type", flags.Lookup("auth-type"))
		_ = v.BindPFlag("auth.basic.username", flags.Lookup("auth-basic-username"))
		_ = v.BindPFlag("auth.basic.password", flags.Lookup("auth-basic-password"))
		_ = v.BindPFlag("auth.api_keys", flags.Lookup("auth-api-keys"))

		// Docs CLI flags
		_ = v.BindPFlag("docs.source_dir", flags.Lookup("docs-source-dir"))
		_ = v.BindPFlag("docs.git_url", flags.Lookup("docs-git-url"))
		_ = v.BindPFlag("docs.base_dir", flags.Lookup("docs-base-dir"))
		_ = v.BindPFlag("docs.sections", flags.Lookup("docs-sections"))
		_ = v.BindPFlag("docs.file_pattern", flags.Lookup("docs-file-pattern"))
		_ = v.BindPFlag("docs.sync_interval", flags.Lookup("docs-sync-interval"))
		_ = v.BindPFlag("docs.sync_timeout", flags.Lookup("docs-sync-timeout"))
		_ = v.BindPFlag("docs.max_file_size", flags.Lookup("docs-max-file-size"))
		_ = v.BindPFlag("docs.max_results", flags.Lookup("docs-max-results"))
		_ = v.BindPFlag("docs.watch", flags.Lookup("docs-watch"))
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of API keys if provided via env var as comma-separated string
	apiKeysEnv := os.Getenv("CMAKE_DOCS_MCP_AUTH_API_KEYS")
	if apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}

	// Trim spaces from API keys
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}

	// Handle explicit parsing of sections if provided via env var as comma-separated string
	sectionsEnv := os.Getenv("CMAKE_DOCS_MCP_DOCS_SECTIONS")
	if sectionsEnv != "" {
		if len(settings.Docs.Sections) == 0 || (len(settings.Docs.Sections) == 1 && strings.Contains(settings.Docs.Sections[0], ",")) {
			settings.Docs.Sections = strings.Split(sectionsEnv, ",")
		}
	}

	// Trim spaces from sections
	for i := range settings.Docs.Sections {
		settings.Docs.Sections[i] = strings.TrimSpace(settings.Docs.Sections[i])
	}

	// Filter out empty sections
	settings.Docs.Sections = filterEmptyStrings(settings.Docs.Sections)

	// Expand home directory in paths
	settings.Docs.BaseDir = expandHomeDir(settings.Docs.BaseDir)
	settings.Docs.SourceDir = expandHomeDir(settings.Docs.SourceDir)

	return &settings, nil
}

// defaultDocsBaseDir returns the default base directory for docs state
func defaultDocsBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cmake-docs-mcp"
	}
	return filepath.Join(home, ".cmake-docs-mcp")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete config.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	switch s.LogLevel {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return errors.New("log-level must be 'debug', 'info', 'warn' or 'error', got: " + s.LogLevel)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	// Validate docs settings
	if err := validateDocsSettings(&s.Docs); err != nil {
		return err
	}

	return nil
}

// validateDocsSettings validates the docs configuration
func validateDocsSettings(d *DocsSettings) error {
	if d.SourceDir == "" && d.GitURL == "" {
		return errors.New("either docs-source-dir or docs-git-url must be set")
	}

	if d.Watch && d.SourceDir == "" {
		return errors.New("docs-watch requires a local docs-source-dir")
	}

	if len(d.Sections) == 0 {
		return errors.New("docs-sections cannot be empty")
	}

	if d.FilePattern == "" {
		return errors.New("docs-file-pattern cannot be empty")
	}

	if d.SyncInterval <= 0 {
		return errors.New("docs-sync-interval must be positive")
	}

	if d.SyncTimeout <= 0 {
		return errors.New("docs-sync-timeout must be positive")
	}

	if d.MaxFileSize <= 0 {
		return errors.New("docs-max-file-size must be positive")
	}

	if d.MaxResults <= 0 {
		return errors.New("docs-max-results must be positive")
	}

	if d.BaseDir == "" {
		return errors.New("docs-base-dir cannot be empty")
	}

	return nil
}
