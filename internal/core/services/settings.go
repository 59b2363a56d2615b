package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLibraryPath = "library.path"

	keyMaxQueryVariants  = "research.max_query_variants"
	keyMaxHitsPerQuery   = "research.max_hits_per_query"
	keyMaxHitsTotal      = "research.max_hits_total"
	keyTargetSources     = "research.target_sources"
	keyMaxExcerpts       = "research.max_excerpts"
	keyMaxExcerptChars   = "research.max_excerpt_chars"
	keyMinHitsRequired   = "research.min_hits_required"
	keyMaxSearchRounds   = "research.max_search_rounds"
	keyContextInfluence  = "research.context_influence"
	keyMaxSearchKeywords = "research.max_search_keywords"
	keyBooleanOperator   = "research.keyword_boolean_operator"
	keyExtractionHint    = "research.keyword_extraction_hint"
	keyRefinementHint    = "research.refinement_hint"
	keyAnswerStyleHint   = "research.answer_style_hint"
	keyLLMPlanning       = "research.llm_planning"
	keyEnableRefinement  = "research.enable_refinement"
	keyFollowUpMaxWords  = "research.follow_up_max_words"
	keyStoreTimeout      = "research.store_timeout"
	keyLanguageTimeout   = "research.language_timeout"

	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"
	keyLLMRPM      = "llm.requests_per_minute"

	keyPostProcessChain    = "postprocess.chain"
	keySnippetTrimMaxChars = "postprocess.snippet_trim.max_chars"
	keySnippetTrimEllipsis = "postprocess.snippet_trim.ellipsis"

	keyConversationBackend = "conversation.backend"
	keyConversationRedis   = "conversation.redis_addr"
	keyConversationTTL     = "conversation.ttl"

	keyServerHost        = "server.host"
	keyServerPort        = "server.port"
	keyServerMaxSessions = "server.max_concurrent_sessions"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
	kindDuration
	kindList
)

// settingKinds lists every key accepted by Set.
var settingKinds = map[string]valueKind{
	keyLibraryPath:         kindString,
	keyMaxQueryVariants:    kindInt,
	keyMaxHitsPerQuery:     kindInt,
	keyMaxHitsTotal:        kindInt,
	keyTargetSources:       kindInt,
	keyMaxExcerpts:         kindInt,
	keyMaxExcerptChars:     kindInt,
	keyMinHitsRequired:     kindInt,
	keyMaxSearchRounds:     kindInt,
	keyContextInfluence:    kindInt,
	keyMaxSearchKeywords:   kindInt,
	keyBooleanOperator:     kindString,
	keyExtractionHint:      kindString,
	keyRefinementHint:      kindString,
	keyAnswerStyleHint:     kindString,
	keyLLMPlanning:         kindBool,
	keyEnableRefinement:    kindBool,
	keyFollowUpMaxWords:    kindInt,
	keyStoreTimeout:        kindDuration,
	keyLanguageTimeout:     kindDuration,
	keyLLMProvider:         kindString,
	keyLLMModel:            kindString,
	keyLLMBaseURL:          kindString,
	keyLLMAPIKey:           kindString,
	keyLLMRPM:              kindInt,
	keyPostProcessChain:    kindList,
	keySnippetTrimMaxChars: kindInt,
	keySnippetTrimEllipsis: kindString,
	keyConversationBackend: kindString,
	keyConversationRedis:   kindString,
	keyConversationTTL:     kindDuration,
	keyServerHost:          kindString,
	keyServerPort:          kindInt,
	keyServerMaxSessions:   kindInt,
}

// hookOptionKeys are the per-hook options, named postprocess.<hook>.<option>.
var hookOptionKeys = []string{keySnippetTrimMaxChars, keySnippetTrimEllipsis}

// SettingKeys returns every key accepted by Set.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()
	r := d.Research

	settings := &domain.AppSettings{
		LibraryPath: s.getString(keyLibraryPath, d.LibraryPath),
		Research: domain.ResearchConfig{
			MaxQueryVariants:       s.getInt(keyMaxQueryVariants, r.MaxQueryVariants),
			MaxHitsPerQuery:        s.getInt(keyMaxHitsPerQuery, r.MaxHitsPerQuery),
			MaxHitsTotal:           s.getInt(keyMaxHitsTotal, r.MaxHitsTotal),
			TargetSources:          s.getInt(keyTargetSources, r.TargetSources),
			MaxExcerpts:            s.getInt(keyMaxExcerpts, r.MaxExcerpts),
			MaxExcerptChars:        s.getInt(keyMaxExcerptChars, r.MaxExcerptChars),
			MinHitsRequired:        s.getInt(keyMinHitsRequired, r.MinHitsRequired),
			MaxSearchRounds:        s.getInt(keyMaxSearchRounds, r.MaxSearchRounds),
			ContextInfluence:       s.getInt(keyContextInfluence, r.ContextInfluence),
			MaxSearchKeywords:      s.getInt(keyMaxSearchKeywords, r.MaxSearchKeywords),
			KeywordBooleanOperator: s.getOperator(r.KeywordBooleanOperator),
			KeywordExtractionHint:  s.configStore.GetString(keyExtractionHint),
			RefinementHint:         s.configStore.GetString(keyRefinementHint),
			AnswerStyleHint:        s.configStore.GetString(keyAnswerStyleHint),
			LLMPlanning:            s.getBool(keyLLMPlanning, r.LLMPlanning),
			EnableRefinement:       s.getBool(keyEnableRefinement, r.EnableRefinement),
			FollowUpMaxWords:       s.getInt(keyFollowUpMaxWords, r.FollowUpMaxWords),
			StoreTimeout:           s.getDuration(keyStoreTimeout, r.StoreTimeout),
			LanguageTimeout:        s.getDuration(keyLanguageTimeout, r.LanguageTimeout),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:             s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerMinute: s.getInt(keyLLMRPM, d.LLM.RequestsPerMinute),
		},
		PostProcessors:       d.PostProcessors,
		PostProcessorOptions: s.hookOptions(),
		Conversation: domain.ConversationSettings{
			Backend:   s.getBackend(d.Conversation.Backend),
			RedisAddr: s.configStore.GetString(keyConversationRedis),
			TTL:       s.getDuration(keyConversationTTL, d.Conversation.TTL),
		},
		Server: domain.ServerSettings{
			Host:                  s.getString(keyServerHost, d.Server.Host),
			Port:                  s.getInt(keyServerPort, d.Server.Port),
			MaxConcurrentSessions: s.getInt(keyServerMaxSessions, d.Server.MaxConcurrentSessions),
		},
	}

	if _, exists := s.configStore.Get(keyPostProcessChain); exists {
		settings.PostProcessors = s.configStore.GetStringSlice(keyPostProcessChain)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	r := settings.Research
	values := []struct {
		key string
		val any
	}{
		{keyLibraryPath, settings.LibraryPath},
		{keyMaxQueryVariants, r.MaxQueryVariants},
		{keyMaxHitsPerQuery, r.MaxHitsPerQuery},
		{keyMaxHitsTotal, r.MaxHitsTotal},
		{keyTargetSources, r.TargetSources},
		{keyMaxExcerpts, r.MaxExcerpts},
		{keyMaxExcerptChars, r.MaxExcerptChars},
		{keyMinHitsRequired, r.MinHitsRequired},
		{keyMaxSearchRounds, r.MaxSearchRounds},
		{keyContextInfluence, r.ContextInfluence},
		{keyMaxSearchKeywords, r.MaxSearchKeywords},
		{keyBooleanOperator, string(r.KeywordBooleanOperator)},
		{keyExtractionHint, r.KeywordExtractionHint},
		{keyRefinementHint, r.RefinementHint},
		{keyAnswerStyleHint, r.AnswerStyleHint},
		{keyLLMPlanning, r.LLMPlanning},
		{keyEnableRefinement, r.EnableRefinement},
		{keyFollowUpMaxWords, r.FollowUpMaxWords},
		{keyStoreTimeout, r.StoreTimeout.String()},
		{keyLanguageTimeout, r.LanguageTimeout.String()},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRPM, settings.LLM.RequestsPerMinute},
		{keyPostProcessChain, settings.PostProcessors},
		{keyConversationBackend, string(settings.Conversation.Backend)},
		{keyConversationRedis, settings.Conversation.RedisAddr},
		{keyConversationTTL, settings.Conversation.TTL.String()},
		{keyServerHost, settings.Server.Host},
		{keyServerPort, settings.Server.Port},
		{keyServerMaxSessions, settings.Server.MaxConcurrentSessions},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.val); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	for _, key := range hookOptionKeys {
		hook, option := splitHookOptionKey(key)
		val, ok := settings.PostProcessorOptions[hook][option]
		if !ok {
			continue
		}
		if err := s.configStore.Set(key, val); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// Set updates one setting by key. The value is parsed according to the
// key's type and the resulting settings must validate before anything
// is persisted.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	pending := &pendingStore{ConfigStore: s.configStore, key: key, value: parsed}
	if err := (&SettingsService{configStore: pending}).Validate(); err != nil {
		return err
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// pendingStore overlays one unsaved value on a config store so that a
// change can be validated before it is persisted.
type pendingStore struct {
	driven.ConfigStore
	key   string
	value any
}

func (p *pendingStore) Get(key string) (any, bool) {
	if key == p.key {
		return p.value, true
	}
	return p.ConfigStore.Get(key)
}

func (p *pendingStore) GetString(key string) string {
	if key == p.key {
		str, _ := p.value.(string)
		return str
	}
	return p.ConfigStore.GetString(key)
}

func (p *pendingStore) GetInt(key string) int {
	if key == p.key {
		n, _ := p.value.(int)
		return n
	}
	return p.ConfigStore.GetInt(key)
}

func (p *pendingStore) GetBool(key string) bool {
	if key == p.key {
		b, _ := p.value.(bool)
		return b
	}
	return p.ConfigStore.GetBool(key)
}

func (p *pendingStore) GetStringSlice(key string) []string {
	if key == p.key {
		items, _ := p.value.([]string)
		return items
	}
	return p.ConfigStore.GetStringSlice(key)
}

func parseSetting(kind valueKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer: %w", value, domain.ErrInvalidInput)
		}
		return n, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean: %w", value, domain.ErrInvalidInput)
		}
		return b, nil
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("%q is not a duration: %w", value, domain.ErrInvalidInput)
		}
		return value, nil
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return value, nil
	}
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else if provider != domain.AIProviderOpenAI {
		// Only OpenAI-compatible endpoints take a custom base URL
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if _, err := settings.Research.Validate(); err != nil {
		return err
	}
	if v := s.configStore.GetString(keyLLMProvider); v != "" && !domain.AIProvider(v).IsValid() {
		return fmt.Errorf("invalid LLM provider %q: %w", v, domain.ErrInvalidConfig)
	}
	if v := s.configStore.GetString(keyConversationBackend); v != "" && !domain.ConversationBackend(v).IsValid() {
		return fmt.Errorf("invalid conversation backend %q: %w", v, domain.ErrInvalidConfig)
	}
	if settings.Conversation.Backend == domain.ConversationBackendRedis && settings.Conversation.RedisAddr == "" {
		return fmt.Errorf("conversation backend redis requires %s: %w", keyConversationRedis, domain.ErrInvalidConfig)
	}
	if n, ok := settings.PostProcessorOptions["snippet_trim"]["max_chars"].(int); ok && n < 1 {
		return fmt.Errorf("%s must be positive, got %d: %w", keySnippetTrimMaxChars, n, domain.ErrInvalidConfig)
	}
	if settings.Server.Port < 1 || settings.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range: %w", settings.Server.Port, domain.ErrInvalidConfig)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt treats a stored zero as a real value; several limits may be 0.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

// hookOptions collects the stored per-hook options. Returns nil when no
// option is set.
func (s *SettingsService) hookOptions() map[string]map[string]any {
	var options map[string]map[string]any
	for _, key := range hookOptionKeys {
		if _, exists := s.configStore.Get(key); !exists {
			continue
		}
		var val any = s.configStore.GetString(key)
		if settingKinds[key] == kindInt {
			val = s.configStore.GetInt(key)
		}

		hook, option := splitHookOptionKey(key)
		if options == nil {
			options = make(map[string]map[string]any)
		}
		if options[hook] == nil {
			options[hook] = make(map[string]any)
		}
		options[hook][option] = val
	}
	return options
}

func splitHookOptionKey(key string) (hook, option string) {
	hook, option, _ = strings.Cut(strings.TrimPrefix(key, "postprocess."), ".")
	return hook, option
}

func (s *SettingsService) getOperator(defaultVal domain.BooleanOperator) domain.BooleanOperator {
	val := s.configStore.GetString(keyBooleanOperator)
	if val == "" {
		return defaultVal
	}
	return domain.BooleanOperator(strings.ToUpper(val))
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.ConversationBackend) domain.ConversationBackend {
	b := domain.ConversationBackend(s.configStore.GetString(keyConversationBackend))
	if !b.IsValid() {
		return defaultVal
	}
	return b
}
