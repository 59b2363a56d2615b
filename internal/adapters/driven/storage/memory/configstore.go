package memory

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory. It backs --ephemeral runs, where
// nothing is written to disk, and tests.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// ConfigOption configures a ConfigStore.
type ConfigOption func(*ConfigStore)

// WithValues seeds the store with dotted keys such as "research.max_hits_total".
func WithValues(values map[string]any) ConfigOption {
	return func(s *ConfigStore) {
		for k, v := range values {
			s.values[k] = v
		}
	}
}

// NewConfigStore creates a new in-memory config store.
func NewConfigStore(opts ...ConfigOption) *ConfigStore {
	s := &ConfigStore{
		values: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, _ := s.Get(key)
	str, _ := val.(string)
	return str
}

// GetInt retrieves an integer value. Whole floats and numeric strings
// are accepted, as they arrive from TOML and environment overrides.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

// GetBool retrieves a boolean value. "true"/"false" strings are accepted.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// GetStringSlice retrieves a string slice. A comma-separated string is split.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}
	var items []string
	switch v := val.(type) {
	case []string:
		items = v
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok {
				items = append(items, str)
			}
		}
	case string:
		items = strings.Split(v, ",")
	default:
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Set stores a configuration value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save is a no-op; nothing outlives the process.
func (s *ConfigStore) Save() error {
	return nil
}

// Load is a no-op.
func (s *ConfigStore) Load() error {
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
