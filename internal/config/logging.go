package config

import (
	"context"
	"log/slog"
	"strings"
)

// ParseLogLevel maps a configured level name to its slog.Level.
// Unknown or empty names fall back to info.
func ParseLogLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings at debug level using the
// provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.DebugContext(ctx, "Config: transport", "value", s.Transport)
	if s.Transport == "sse" {
		logger.DebugContext(ctx, "Config: host", "value", s.Host)
		logger.DebugContext(ctx, "Config: port", "value", s.Port)
	}

	logger.DebugContext(ctx, "Config: auth.type", "value", s.Auth.Type)
	switch s.Auth.Type {
	case AuthTypeBasic:
		logger.DebugContext(ctx, "Config: auth.basic.username", "value", s.Auth.Basic.Username)
		logger.DebugContext(ctx, "Config: auth.basic.password", "value", "****")
	case AuthTypeAPIKey:
		logger.DebugContext(ctx, "Config: auth.api_keys", "count", len(s.Auth.APIKeys))
	}

	if s.Docs.SourceDir != "" {
		logger.DebugContext(ctx, "Config: docs.source_dir", "value", s.Docs.SourceDir)
		logger.DebugContext(ctx, "Config: docs.watch", "value", s.Docs.Watch)
	} else {
		logger.DebugContext(ctx, "Config: docs.git_url", "value", s.Docs.GitURL)
		logger.DebugContext(ctx, "Config: docs.sync_interval", "value", s.Docs.SyncInterval)
	}
	logger.DebugContext(ctx, "Config: docs.base_dir", "value", s.Docs.BaseDir)
	logger.DebugContext(ctx, "Config: docs.sections", "value", strings.Join(s.Docs.Sections, ","))
	logger.DebugContext(ctx, "Config: docs.file_pattern", "value", s.Docs.FilePattern)
	logger.DebugContext(ctx, "Config: docs.max_results", "value", s.Docs.MaxResults)
}

// AuthSettingsLogValue returns a slog.Value for AuthSettings with masked data
func AuthSettingsLogValue(s AuthSettings) slog.Value {
	keys := make([]string, len(s.APIKeys))
	for i := range s.APIKeys {
		keys[i] = "****"
	}
	return slog.GroupValue(
		slog.String("type", s.Type),
		slog.Any("basic", BasicAuthSettingsLogValue(s.Basic)),
		slog.Any("api_keys", keys),
	)
}

// BasicAuthSettingsLogValue returns a slog.Value for BasicAuthSettings with masked data
func BasicAuthSettingsLogValue(s BasicAuthSettings) slog.Value {
	return slog.GroupValue(
		slog.String("username", s.Username),
		slog.String("password", "****"),
	)
}

// DocsSettingsLogValue returns a slog.Value for DocsSettings
func DocsSettingsLogValue(s DocsSettings) slog.Value {
	return slog.GroupValue(
		slog.String("source_dir", s.SourceDir),
		slog.String("git_url", s.GitURL),
		slog.String("base_dir", s.BaseDir),
		slog.String("sections", strings.Join(s.Sections, ",")),
		slog.String("file_pattern", s.FilePattern),
		slog.Duration("sync_interval", s.SyncInterval),
		slog.Duration("sync_timeout", s.SyncTimeout),
		slog.Int64("max_file_size", s.MaxFileSize),
		slog.Int("max_results", s.MaxResults),
		slog.Bool("watch", s.Watch),
	)
}

// SettingsLogValue returns a slog.Value for Settings with masked data
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("transport", s.Transport),
		slog.String("host", s.Host),
		slog.Int("port", s.Port),
		slog.Any("auth", AuthSettingsLogValue(s.Auth)),
		slog.Any("docs", DocsSettingsLogValue(s.Docs)),
	)
}
