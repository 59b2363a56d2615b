// Package overlay layers environment variables and command-line flags,
// resolved through viper, over a persistent config store.
package overlay

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ConfigStore = (*Store)(nil)

// EnvPrefix prefixes environment overrides: SHELFSEARCH_LLM_API_KEY sets llm.api_key.
const EnvPrefix = "SHELFSEARCH"

// legacyEnv maps setting keys to environment names honoured alongside
// the prefixed form. The prefixed form wins when both are set.
var legacyEnv = map[string]string{
	"library.path": "CALIBRE_LIBRARY_PATH",
	"server.host":  "MCP_SERVER_HOST",
	"server.port":  "MCP_SERVER_PORT",
}

var keyReplacer = strings.NewReplacer(".", "_")

// NewViper returns a viper instance that resolves dotted setting keys
// from SHELFSEARCH_* variables and the legacy names.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(keyReplacer)
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		_ = v.BindEnv(key, EnvName(key), legacy)
	}
	return v
}

// EnvName returns the prefixed environment variable for a setting key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(keyReplacer.Replace(key))
}

// Store reads overrides from viper before falling back to the wrapped
// store. Writes always go to the wrapped store, so overrides are never
// persisted and keep winning over stored values while they are set.
type Store struct {
	driven.ConfigStore
	v *viper.Viper
}

// New wraps base with the overrides visible to v.
func New(base driven.ConfigStore, v *viper.Viper) *Store {
	return &Store{ConfigStore: base, v: v}
}

// Get retrieves a configuration value by key.
func (s *Store) Get(key string) (any, bool) {
	if s.v.IsSet(key) {
		return s.v.Get(key), true
	}
	return s.ConfigStore.Get(key)
}

// GetString retrieves a string configuration value.
func (s *Store) GetString(key string) string {
	if s.v.IsSet(key) {
		return s.v.GetString(key)
	}
	return s.ConfigStore.GetString(key)
}

// GetInt retrieves an integer configuration value.
func (s *Store) GetInt(key string) int {
	if s.v.IsSet(key) {
		return s.v.GetInt(key)
	}
	return s.ConfigStore.GetInt(key)
}

// GetBool retrieves a boolean configuration value.
func (s *Store) GetBool(key string) bool {
	if s.v.IsSet(key) {
		return s.v.GetBool(key)
	}
	return s.ConfigStore.GetBool(key)
}

// GetStringSlice retrieves a string slice. Overrides are comma separated.
func (s *Store) GetStringSlice(key string) []string {
	if !s.v.IsSet(key) {
		return s.ConfigStore.GetStringSlice(key)
	}
	if items, ok := s.v.Get(key).([]string); ok {
		return items
	}
	var out []string
	for _, item := range strings.Split(s.v.GetString(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
