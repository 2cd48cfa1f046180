package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// validDocs returns a docs config that passes validation, for tests
// that exercise other parts of the settings.
func validDocs() DocsSettings {
	return DocsSettings{
		GitURL:       DefaultGitURL,
		BaseDir:      "/tmp/test",
		Sections:     []string{"command", "variable"},
		FilePattern:  "*.rst",
		SyncInterval: 24 * time.Hour,
		SyncTimeout:  120 * time.Second,
		MaxFileSize:  256 * 1024,
		MaxResults:   20,
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	_ = os.Unsetenv("CMAKE_DOCS_MCP_PORT")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_AUTH_TYPE")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", settings.Port)
	}
	if settings.Auth.Type != AuthTypeNone {
		t.Errorf("Expected default auth type '%s', got '%s'", AuthTypeNone, settings.Auth.Type)
	}
	if settings.Transport != "stdio" {
		t.Errorf("Expected default transport 'stdio', got '%s'", settings.Transport)
	}
	if settings.Host != "0.0.0.0" {
		t.Errorf("Expected default host '0.0.0.0', got '%s'", settings.Host)
	}
	if settings.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", settings.LogLevel)
	}
}

func TestLoadSettings_EnvVars(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_PORT", "9090")
	t.Setenv("CMAKE_DOCS_MCP_AUTH_TYPE", "basic")
	t.Setenv("CMAKE_DOCS_MCP_AUTH_BASIC_USERNAME", "admin")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", settings.Port)
	}
	if settings.Auth.Type != AuthTypeBasic {
		t.Errorf("Expected auth type '%s', got '%s'", AuthTypeBasic, settings.Auth.Type)
	}
	if settings.Auth.Basic.Username != "admin" {
		t.Errorf("Expected username 'admin', got '%s'", settings.Auth.Basic.Username)
	}
}

func TestLoadSettings_APIKeys_EnvVar(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_AUTH_API_KEYS", "key1, key2,key3")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if len(settings.Auth.APIKeys) != 3 {
		t.Fatalf("Expected 3 API keys, got %d", len(settings.Auth.APIKeys))
	}
	if settings.Auth.APIKeys[0] != "key1" {
		t.Errorf("Expected key1, got '%s'", settings.Auth.APIKeys[0])
	}
	if settings.Auth.APIKeys[1] != "key2" {
		t.Errorf("Expected key2, got '%s'", settings.Auth.APIKeys[1])
	}
	if settings.Auth.APIKeys[2] != "key3" {
		t.Errorf("Expected key3, got '%s'", settings.Auth.APIKeys[2])
	}
}

func TestLoadSettings_APIKeys_SingleKey(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_AUTH_API_KEYS", "singlekey")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	if len(settings.Auth.APIKeys) != 1 {
		t.Fatalf("Expected 1 API key, got %d", len(settings.Auth.APIKeys))
	}
	if settings.Auth.APIKeys[0] != "singlekey" {
		t.Errorf("Expected singlekey, got '%s'", settings.Auth.APIKeys[0])
	}
}

func TestLoadSettings_EnvFile(t *testing.T) {
	content := []byte("host=127.0.0.2\nport=7000")
	tmpEnv := ".env"
	if err := os.WriteFile(tmpEnv, content, 0644); err != nil {
		t.Fatalf("Failed to create .env file: %v", err)
	}
	defer func() { _ = os.Remove(tmpEnv) }()

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Host != "127.0.0.2" {
		t.Errorf("Expected host 127.0.0.2, got %s", settings.Host)
	}
	if settings.Port != 7000 {
		t.Errorf("Expected port 7000, got %d", settings.Port)
	}
}

func TestLoadSettings_InvalidConfig(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_PORT", "not-a-number")

	_, err := LoadSettings()
	if err == nil {
		t.Fatal("Expected error for invalid port type")
	}
}

func TestLoadSettingsWithFlags_CLIOverridesEnv(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_PORT", "9090")
	t.Setenv("CMAKE_DOCS_MCP_TRANSPORT", "sse")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("transport", "", "")
	_ = flags.Set("port", "7777")
	_ = flags.Set("transport", "stdio")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Port != 7777 {
		t.Errorf("Expected CLI port 7777, got %d", settings.Port)
	}
	if settings.Transport != "stdio" {
		t.Errorf("Expected CLI transport 'stdio', got '%s'", settings.Transport)
	}
}

func TestLoadSettingsWithFlags_EnvOverridesDefault(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_HOST", "192.168.1.1")

	settings, err := LoadSettingsWithFlags(nil)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Host != "192.168.1.1" {
		t.Errorf("Expected env host '192.168.1.1', got '%s'", settings.Host)
	}
}

func TestLoadSettingsWithFlags_NilFlags(t *testing.T) {
	_ = os.Unsetenv("CMAKE_DOCS_MCP_PORT")

	settings, err := LoadSettingsWithFlags(nil)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", settings.Port)
	}
}

func TestLoadSettingsWithFlags_AllFlagTypes(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("transport", "", "")
	flags.String("host", "", "")
	flags.Int("port", 0, "")
	flags.String("auth-type", "", "")
	flags.String("auth-basic-username", "", "")
	flags.String("auth-basic-password", "", "")
	flags.StringSlice("auth-api-keys", nil, "")

	_ = flags.Set("transport", "sse")
	_ = flags.Set("host", "localhost")
	_ = flags.Set("port", "3000")
	_ = flags.Set("auth-type", "basic")
	_ = flags.Set("auth-basic-username", "testuser")
	_ = flags.Set("auth-basic-password", "testpass")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Transport != "sse" {
		t.Errorf("Expected transport 'sse', got '%s'", settings.Transport)
	}
	if settings.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", settings.Host)
	}
	if settings.Port != 3000 {
		t.Errorf("Expected port 3000, got %d", settings.Port)
	}
	if settings.Auth.Type != "basic" {
		t.Errorf("Expected auth type 'basic', got '%s'", settings.Auth.Type)
	}
	if settings.Auth.Basic.Username != "testuser" {
		t.Errorf("Expected username 'testuser', got '%s'", settings.Auth.Basic.Username)
	}
	if settings.Auth.Basic.Password != "testpass" {
		t.Errorf("Expected password 'testpass', got '%s'", settings.Auth.Basic.Password)
	}
}

// --- ValidateSettings Tests ---

func TestValidateSettings_ValidNone(t *testing.T) {
	s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: AuthTypeNone}, Docs: validDocs()}
	if err := ValidateSettings(s); err != nil {
		t.Errorf("Expected no error for valid none auth, got: %v", err)
	}
}

func TestValidateSettings_ValidNone_EmptyType(t *testing.T) {
	s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: ""}, Docs: validDocs()}
	if err := ValidateSettings(s); err != nil {
		t.Errorf("Expected no error for empty auth type, got: %v", err)
	}
}

func TestValidateSettings_ValidBasic(t *testing.T) {
	s := &Settings{
		Transport: "stdio",
		Auth: AuthSettings{
			Type: AuthTypeBasic,
			Basic: BasicAuthSettings{
				Username: "admin",
				Password: "secret",
			},
		},
		Docs: validDocs(),
	}
	if err := ValidateSettings(s); err != nil {
		t.Errorf("Expected no error for valid basic auth, got: %v", err)
	}
}

func TestValidateSettings_ValidAPIKey(t *testing.T) {
	s := &Settings{
		Transport: "stdio",
		Auth: AuthSettings{
			Type:    AuthTypeAPIKey,
			APIKeys: []string{"key1", "key2"},
		},
		Docs: validDocs(),
	}
	if err := ValidateSettings(s); err != nil {
		t.Errorf("Expected no error for valid apikey auth, got: %v", err)
	}
}

func TestValidateSettings_NoneWithCredentials(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
	}{
		{
			name: "none with username",
			settings: Settings{
				Transport: "stdio",
				Auth: AuthSettings{
					Type:  AuthTypeNone,
					Basic: BasicAuthSettings{Username: "admin"},
				},
				Docs: validDocs(),
			},
		},
		{
			name: "none with password",
			settings: Settings{
				Transport: "stdio",
				Auth: AuthSettings{
					Type:  AuthTypeNone,
					Basic: BasicAuthSettings{Password: "secret"},
				},
				Docs: validDocs(),
			},
		},
		{
			name: "none with api keys",
			settings: Settings{
				Transport: "stdio",
				Auth: AuthSettings{
					Type:    AuthTypeNone,
					APIKeys: []string{"key1"},
				},
				Docs: validDocs(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(&tt.settings)
			if err == nil {
				t.Fatal("Expected error for none with credentials")
			}
			if !strings.Contains(err.Error(), "incompatible") {
				t.Errorf("Expected 'incompatible' in error, got: %v", err)
			}
		})
	}
}

func TestValidateSettings_BasicAuthMissingUsername(t *testing.T) {
	s := &Settings{
		Transport: "stdio",
		Auth: AuthSettings{
			Type: AuthTypeBasic,
			Basic: BasicAuthSettings{
				Password: "secret",
			},
		},
		Docs: validDocs(),
	}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for basic auth without username")
	}
	if !strings.Contains(err.Error(), "username and password") {
		t.Errorf("Expected 'username and password' in error, got: %v", err)
	}
}

func TestValidateSettings_BasicAuthWithAPIKeys(t *testing.T) {
	s := &Settings{
		Transport: "stdio",
		Auth: AuthSettings{
			Type: AuthTypeBasic,
			Basic: BasicAuthSettings{
				Username: "admin",
				Password: "secret",
			},
			APIKeys: []string{"key1"},
		},
		Docs: validDocs(),
	}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for basic + api keys")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("Expected 'mutually exclusive' in error, got: %v", err)
	}
}

func TestValidateSettings_APIKeyMissingKeys(t *testing.T) {
	s := &Settings{
		Transport: "stdio",
		Auth: AuthSettings{
			Type: AuthTypeAPIKey,
		},
		Docs: validDocs(),
	}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for apikey without keys")
	}
	if !strings.Contains(err.Error(), "requires at least one") {
		t.Errorf("Expected 'requires at least one' in error, got: %v", err)
	}
}

func TestValidateSettings_UnknownAuthType(t *testing.T) {
	s := &Settings{
		Transport: "stdio",
		Auth: AuthSettings{
			Type: "oauth",
		},
		Docs: validDocs(),
	}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for unknown auth type")
	}
	if !strings.Contains(err.Error(), "unknown auth-type") {
		t.Errorf("Expected 'unknown auth-type' in error, got: %v", err)
	}
}

// --- Transport Validation Tests ---

func TestValidateSettings_InvalidTransport(t *testing.T) {
	tests := []struct {
		name      string
		transport string
	}{
		{"empty transport", ""},
		{"http transport", "http"},
		{"websocket transport", "websocket"},
		{"unknown transport", "foobar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Settings{
				Transport: tt.transport,
				Auth:      AuthSettings{Type: AuthTypeNone},
				Docs:      validDocs(),
			}
			err := ValidateSettings(s)
			if err == nil {
				t.Fatalf("Expected error for transport %q", tt.transport)
			}
			if !strings.Contains(err.Error(), "transport must be") {
				t.Errorf("Expected 'transport must be' in error, got: %v", err)
			}
		})
	}
}

func TestValidateSettings_LogLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		s := &Settings{
			Transport: "stdio",
			LogLevel:  level,
			Auth:      AuthSettings{Type: AuthTypeNone},
			Docs:      validDocs(),
		}
		if err := ValidateSettings(s); err != nil {
			t.Errorf("Expected no error for log level %q, got: %v", level, err)
		}
	}

	s := &Settings{
		Transport: "stdio",
		LogLevel:  "verbose",
		Auth:      AuthSettings{Type: AuthTypeNone},
		Docs:      validDocs(),
	}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for unknown log level")
	}
	if !strings.Contains(err.Error(), "log-level must be") {
		t.Errorf("Expected 'log-level must be' in error, got: %v", err)
	}
}

// --- DocsSettings Tests ---

func TestLoadSettings_DocsDefaults(t *testing.T) {
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_SOURCE_DIR")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_GIT_URL")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_BASE_DIR")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_SECTIONS")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_FILE_PATTERN")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_SYNC_INTERVAL")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_SYNC_TIMEOUT")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_MAX_FILE_SIZE")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_MAX_RESULTS")
	_ = os.Unsetenv("CMAKE_DOCS_MCP_DOCS_WATCH")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Docs.SourceDir != "" {
		t.Errorf("Expected empty source dir by default, got '%s'", settings.Docs.SourceDir)
	}

	if settings.Docs.GitURL != DefaultGitURL {
		t.Errorf("Expected default git URL '%s', got '%s'", DefaultGitURL, settings.Docs.GitURL)
	}

	if !strings.HasSuffix(settings.Docs.BaseDir, ".cmake-docs-mcp") {
		t.Errorf("Expected base dir to end with '.cmake-docs-mcp', got '%s'", settings.Docs.BaseDir)
	}

	if !slices.Equal(settings.Docs.Sections, DefaultSections()) {
		t.Errorf("Expected default sections, got %v", settings.Docs.Sections)
	}

	if settings.Docs.FilePattern != "*.rst" {
		t.Errorf("Expected file pattern '*.rst', got '%s'", settings.Docs.FilePattern)
	}

	if settings.Docs.SyncInterval != 24*time.Hour {
		t.Errorf("Expected sync interval 24h, got %v", settings.Docs.SyncInterval)
	}

	if settings.Docs.SyncTimeout != 120*time.Second {
		t.Errorf("Expected sync timeout 120s, got %v", settings.Docs.SyncTimeout)
	}

	if settings.Docs.MaxFileSize != 256*1024 {
		t.Errorf("Expected max file size 256KB, got %d", settings.Docs.MaxFileSize)
	}

	if settings.Docs.MaxResults != 20 {
		t.Errorf("Expected max results 20, got %d", settings.Docs.MaxResults)
	}

	if settings.Docs.Watch {
		t.Error("Expected watch disabled by default")
	}
}

func TestLoadSettings_DocsEnvVars(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SOURCE_DIR", "/opt/cmake")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_BASE_DIR", "/custom/path")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SECTIONS", "command,variable")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_FILE_PATTERN", "*.txt")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SYNC_INTERVAL", "30m")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SYNC_TIMEOUT", "45s")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_MAX_FILE_SIZE", "512000")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_MAX_RESULTS", "50")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_WATCH", "true")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Docs.SourceDir != "/opt/cmake" {
		t.Errorf("Expected source dir '/opt/cmake', got '%s'", settings.Docs.SourceDir)
	}

	if settings.Docs.BaseDir != "/custom/path" {
		t.Errorf("Expected base dir '/custom/path', got '%s'", settings.Docs.BaseDir)
	}

	if want := []string{"command", "variable"}; !slices.Equal(settings.Docs.Sections, want) {
		t.Errorf("Expected sections %v, got %v", want, settings.Docs.Sections)
	}

	if settings.Docs.FilePattern != "*.txt" {
		t.Errorf("Expected file pattern '*.txt', got '%s'", settings.Docs.FilePattern)
	}

	if settings.Docs.SyncInterval != 30*time.Minute {
		t.Errorf("Expected sync interval 30m, got %v", settings.Docs.SyncInterval)
	}

	if settings.Docs.SyncTimeout != 45*time.Second {
		t.Errorf("Expected sync timeout 45s, got %v", settings.Docs.SyncTimeout)
	}

	if settings.Docs.MaxFileSize != 512000 {
		t.Errorf("Expected max file size 512000, got %d", settings.Docs.MaxFileSize)
	}

	if settings.Docs.MaxResults != 50 {
		t.Errorf("Expected max results 50, got %d", settings.Docs.MaxResults)
	}

	if !settings.Docs.Watch {
		t.Error("Expected watch enabled")
	}
}

func TestLoadSettings_DocsSectionsTrimSpaces(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SECTIONS", " command , variable ")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if want := []string{"command", "variable"}; !slices.Equal(settings.Docs.Sections, want) {
		t.Errorf("Expected trimmed sections %v, got %v", want, settings.Docs.Sections)
	}
}

func TestLoadSettings_DocsSectionsFilterEmpty(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SECTIONS", "command,,variable,")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if len(settings.Docs.Sections) != 2 {
		t.Fatalf("Expected 2 sections (empty filtered out), got %d: %v", len(settings.Docs.Sections), settings.Docs.Sections)
	}
}

func TestLoadSettings_DocsDirsExpandHome(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_DOCS_BASE_DIR", "~/custom-docs")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SOURCE_DIR", "~/cmake-src")

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	home, _ := os.UserHomeDir()
	if expected := filepath.Join(home, "custom-docs"); settings.Docs.BaseDir != expected {
		t.Errorf("Expected base dir '%s', got '%s'", expected, settings.Docs.BaseDir)
	}
	if expected := filepath.Join(home, "cmake-src"); settings.Docs.SourceDir != expected {
		t.Errorf("Expected source dir '%s', got '%s'", expected, settings.Docs.SourceDir)
	}
}

func TestLoadSettingsWithFlags_DocsFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("docs-source-dir", "", "")
	flags.String("docs-git-url", "", "")
	flags.String("docs-base-dir", "", "")
	flags.StringSlice("docs-sections", nil, "")
	flags.String("docs-file-pattern", "", "")
	flags.Duration("docs-sync-interval", 0, "")
	flags.Duration("docs-sync-timeout", 0, "")
	flags.Int64("docs-max-file-size", 0, "")
	flags.Int("docs-max-results", 0, "")
	flags.Bool("docs-watch", false, "")

	_ = flags.Set("docs-git-url", "https://example.com/cmake.git")
	_ = flags.Set("docs-base-dir", "/flag/path")
	_ = flags.Set("docs-sections", "command")
	_ = flags.Set("docs-sync-interval", "5m")
	_ = flags.Set("docs-sync-timeout", "30s")
	_ = flags.Set("docs-max-file-size", "1024")
	_ = flags.Set("docs-max-results", "10")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Docs.GitURL != "https://example.com/cmake.git" {
		t.Errorf("Expected git URL from flag, got '%s'", settings.Docs.GitURL)
	}

	if settings.Docs.BaseDir != "/flag/path" {
		t.Errorf("Expected base dir '/flag/path', got '%s'", settings.Docs.BaseDir)
	}

	if len(settings.Docs.Sections) != 1 || settings.Docs.Sections[0] != "command" {
		t.Errorf("Expected sections from flag, got %v", settings.Docs.Sections)
	}

	if settings.Docs.SyncInterval != 5*time.Minute {
		t.Errorf("Expected sync interval 5m, got %v", settings.Docs.SyncInterval)
	}

	if settings.Docs.SyncTimeout != 30*time.Second {
		t.Errorf("Expected sync timeout 30s, got %v", settings.Docs.SyncTimeout)
	}

	if settings.Docs.MaxFileSize != 1024 {
		t.Errorf("Expected max file size 1024, got %d", settings.Docs.MaxFileSize)
	}

	if settings.Docs.MaxResults != 10 {
		t.Errorf("Expected max results 10, got %d", settings.Docs.MaxResults)
	}
}

func TestLoadSettingsWithFlags_DocsFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CMAKE_DOCS_MCP_DOCS_MAX_RESULTS", "100")
	t.Setenv("CMAKE_DOCS_MCP_DOCS_SOURCE_DIR", "/env/path")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("docs-max-results", 0, "")
	flags.String("docs-source-dir", "", "")

	_ = flags.Set("docs-max-results", "25")
	_ = flags.Set("docs-source-dir", "/flag/path")

	settings, err := LoadSettingsWithFlags(flags)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Docs.MaxResults != 25 {
		t.Errorf("Expected flag to override env for max results, got %d", settings.Docs.MaxResults)
	}

	if settings.Docs.SourceDir != "/flag/path" {
		t.Errorf("Expected flag to override env for source dir, got '%s'", settings.Docs.SourceDir)
	}
}

// --- Docs Validation Tests ---

func TestValidateSettings_DocsValid(t *testing.T) {
	s := &Settings{
		Transport: "stdio",
		Auth:      AuthSettings{Type: AuthTypeNone},
		Docs:      validDocs(),
	}
	if err := ValidateSettings(s); err != nil {
		t.Errorf("Expected no error for valid docs config, got: %v", err)
	}
}

func TestValidateSettings_DocsLocalSourceValid(t *testing.T) {
	docs := validDocs()
	docs.GitURL = ""
	docs.SourceDir = "/opt/cmake"
	docs.Watch = true

	s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: AuthTypeNone}, Docs: docs}
	if err := ValidateSettings(s); err != nil {
		t.Errorf("Expected no error for local source config, got: %v", err)
	}
}

func TestValidateSettings_DocsNoSource(t *testing.T) {
	docs := validDocs()
	docs.GitURL = ""
	docs.SourceDir = ""

	s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: AuthTypeNone}, Docs: docs}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error when neither source dir nor git URL is set")
	}
	if !strings.Contains(err.Error(), "docs-source-dir or docs-git-url") {
		t.Errorf("Expected source requirement in error, got: %v", err)
	}
}

func TestValidateSettings_DocsWatchWithoutSourceDir(t *testing.T) {
	docs := validDocs()
	docs.Watch = true

	s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: AuthTypeNone}, Docs: docs}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for watch without source dir")
	}
	if !strings.Contains(err.Error(), "docs-watch requires") {
		t.Errorf("Expected 'docs-watch requires' in error, got: %v", err)
	}
}

func TestValidateSettings_DocsEmptySections(t *testing.T) {
	docs := validDocs()
	docs.Sections = nil

	s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: AuthTypeNone}, Docs: docs}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for empty sections")
	}
	if !strings.Contains(err.Error(), "sections cannot be empty") {
		t.Errorf("Expected 'sections cannot be empty' in error, got: %v", err)
	}
}

func TestValidateSettings_DocsEmptyFilePattern(t *testing.T) {
	docs := validDocs()
	docs.FilePattern = ""

	s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: AuthTypeNone}, Docs: docs}
	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("Expected error for empty file pattern")
	}
	if !strings.Contains(err.Error(), "file-pattern cannot be empty") {
		t.Errorf("Expected 'file-pattern cannot be empty' in error, got: %v", err)
	}
}

func TestValidateSettings_DocsInvalidDurationsAndLimits(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DocsSettings)
		wantErr string
	}{
		{"zero sync interval", func(d *DocsSettings) { d.SyncInterval = 0 }, "sync-interval must be positive"},
		{"zero sync timeout", func(d *DocsSettings) { d.SyncTimeout = 0 }, "sync-timeout must be positive"},
		{"zero max file size", func(d *DocsSettings) { d.MaxFileSize = 0 }, "max-file-size must be positive"},
		{"zero max results", func(d *DocsSettings) { d.MaxResults = 0 }, "max-results must be positive"},
		{"empty base dir", func(d *DocsSettings) { d.BaseDir = "" }, "base-dir cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := validDocs()
			tt.mutate(&docs)

			s := &Settings{Transport: "stdio", Auth: AuthSettings{Type: AuthTypeNone}, Docs: docs}
			err := ValidateSettings(s)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got: %v", tt.wantErr, err)
			}
		})
	}
}

// --- Helper Function Tests ---

func TestExpandHomeDir(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"tilde prefix", "~/test", filepath.Join(home, "test")},
		{"tilde only", "~", home},
		{"no tilde", "/absolute/path", "/absolute/path"},
		{"tilde in middle", "/path/~/test", "/path/~/test"},
		{"relative path", "relative/path", "relative/path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandHomeDir(tt.input)
			if result != tt.expected {
				t.Errorf("expandHomeDir(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFilterEmptyStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{"no empties", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"with empties", []string{"a", "", "b", "", "c"}, []string{"a", "b", "c"}},
		{"all empties", []string{"", "", ""}, nil},
		{"nil input", nil, nil},
		{"single empty", []string{""}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filterEmptyStrings(tt.input)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("filterEmptyStrings(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}
