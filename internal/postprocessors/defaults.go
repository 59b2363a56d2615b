package postprocessors

import (
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/postprocessors/htmlclean"
	"github.com/custodia-labs/shelfsearch/internal/postprocessors/snippettrim"
)

// RegisterDefaults registers all built-in hooks with the registry.
// Call this during application initialisation to enable standard hooks.
func RegisterDefaults(r *Registry) {
	r.Register(htmlclean.Name, buildHTMLCleanup)
	r.Register(snippettrim.Name, buildSnippetTrim)
}

func buildHTMLCleanup(_ map[string]any) (driven.PostProcessor, error) {
	return htmlclean.New(), nil
}

// buildSnippetTrim creates a snippet trimmer from generic config.
// Supported config keys:
//   - max_chars (int): Maximum snippet length in characters (default: 240)
func buildSnippetTrim(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []snippettrim.Option
	if n := getIntFromConfig(cfg, "max_chars"); n > 0 {
		opts = append(opts, snippettrim.WithMaxChars(n))
	}
	if s, ok := cfg["ellipsis"].(string); ok {
		opts = append(opts, snippettrim.WithEllipsis(s))
	}
	return snippettrim.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
