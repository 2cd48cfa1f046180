package domain

// DocEntry is one documentation record derived from a single Help source
// file, or from one expansion of a templated file name. It is the unit
// stored in the lookup table and in the on-disk table artifact.
type DocEntry struct {
	// Key is the canonical entity name. Lookup is case-insensitive;
	// the original casing is preserved here.
	// Example: "add_executable", "CMAKE_CXX_STANDARD"
	Key string `json:"key"`

	// Kind is the Help section the entry came from.
	// Example: "command", "variable", "envvar", "prop_tgt"
	Kind string `json:"kind"`

	// Path is the source file path relative to the docs root.
	// Example: "Help/command/add_executable.rst"
	Path string `json:"path"`

	// Synopsis is the first sentence of the entry's opening paragraph.
	// Nil when no synopsis could be derived from the source.
	Synopsis *string `json:"synopsis"`

	// Example is the entry's first literal usage block, verbatim.
	// Nil when the source never introduces a literal block.
	Example *string `json:"example"`
}

// DocDocument is the search-index projection of a DocEntry plus the raw
// source text. It is the primary data structure stored in the Bleve index.
type DocDocument struct {
	// ID is a unique identifier combining kind and key.
	// Format: "command/add_executable"
	ID string `json:"id"`

	// Key is the canonical entity name, as in DocEntry.
	Key string `json:"key"`

	// Kind is the Help section, as in DocEntry.
	Kind string `json:"kind"`

	// Path is the source file path relative to the docs root.
	Path string `json:"path"`

	// Synopsis is the derived synopsis, or the empty string when absent.
	Synopsis string `json:"synopsis"`

	// Example is the derived example block, or the empty string when absent.
	Example string `json:"example"`

	// Body is the full normalized source text used for full-text search.
	Body string `json:"body"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	DocFieldID       = "id"
	DocFieldKey      = "key"
	DocFieldKind     = "kind"
	DocFieldPath     = "path"
	DocFieldSynopsis = "synopsis"
	DocFieldExample  = "example"
	DocFieldBody     = "body"
)

// kindLabels maps Help section names to human-readable labels.
var kindLabels = map[string]string{
	"command":    "command",
	"variable":   "variable",
	"envvar":     "environment variable",
	"policy":     "policy",
	"module":     "module",
	"generator":  "generator",
	"cpack_gen":  "CPack generator",
	"guide":      "guide",
	"manual":     "manual",
	"prop_tgt":   "target property",
	"prop_dir":   "directory property",
	"prop_sf":    "source file property",
	"prop_test":  "test property",
	"prop_gbl":   "global property",
	"prop_cache": "cache property",
	"prop_inst":  "installed file property",
}

// KindLabel returns a human-readable label for a Help section name.
// Unknown sections are returned as-is.
func KindLabel(kind string) string {
	if label, ok := kindLabels[kind]; ok {
		return label
	}
	return kind
}
