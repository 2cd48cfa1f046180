package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	RegisterServerFlags(flags)
	RegisterDocsFlags(flags)
}

// RegisterServerFlags registers transport, auth and logging flags
func RegisterServerFlags(flags *pflag.FlagSet) {
	flags.StringP("transport", "t", "", "Transport type: stdio or sse")
	flags.StringP("host", "H", "", "Host for SSE transport")
	flags.IntP("port", "p", 0, "Port for SSE transport")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	flags.StringP("log-level", "l", "", "Log level: debug, info, warn, or error")
}

// RegisterDocsFlags registers documentation source flags. Zero-value
// defaults keep viper's own defaults in charge for unset flags.
func RegisterDocsFlags(flags *pflag.FlagSet) {
	flags.StringP("docs-source-dir", "s", "", "Local CMake checkout or Help directory to scan")
	flags.String("docs-git-url", "", "Git repository to fetch the documentation from")
	flags.StringP("docs-base-dir", "d", "", "Directory for the checkout, table and search indexes")
	flags.StringSlice("docs-sections", nil, "Help sections to scan (comma-separated)")
	flags.String("docs-file-pattern", "", "Glob matched against doc file names")
	flags.Duration("docs-sync-interval", 0, "How often to check the git source for updates")
	flags.Duration("docs-sync-timeout", 0, "How long to wait for a concurrent build to finish")
	flags.Int64("docs-max-file-size", 0, "Largest doc file to scan, in bytes")
	flags.Int("docs-max-results", 0, "Maximum number of search results")
	flags.BoolP("docs-watch", "w", false, "Rebuild when local doc files change")
}
