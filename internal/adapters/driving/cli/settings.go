package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the library location, research limits, the LLM
provider and the conversation store.

Settings are stored in config.toml under the configuration directory.
Environment variables named after a key (SHELFSEARCH_RESEARCH_MAX_HITS_TOTAL
for research.max_hits_total) override stored values without changing them.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting by its dotted key. The new value is validated
together with the other settings before it is saved.

Examples:
  shelfsearch settings set library.path "/home/me/Calibre Library"
  shelfsearch settings set research.max_search_rounds 2
  shelfsearch settings set research.keyword_boolean_operator AND
  shelfsearch settings set postprocess.chain html_cleanup,snippet_trim
  shelfsearch settings set conversation.backend redis`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long: `Configure the LLM used for keyword planning, query refinement and
answer composition. Without one, research runs on heuristics only.`,
	RunE: runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Library]")
	cmd.Printf("  Path: %s\n", settings.LibraryPath)
	cmd.Println()

	r := settings.Research
	cmd.Println("[Research]")
	cmd.Printf("  Query variants: %d\n", r.MaxQueryVariants)
	cmd.Printf("  Hits per query: %d\n", r.MaxHitsPerQuery)
	cmd.Printf("  Hits total: %d\n", r.MaxHitsTotal)
	cmd.Printf("  Target sources: %d\n", r.TargetSources)
	cmd.Printf("  Excerpts: %d (max %d chars)\n", r.MaxExcerpts, r.MaxExcerptChars)
	cmd.Printf("  Min hits required: %d\n", r.MinHitsRequired)
	cmd.Printf("  Search rounds: %d\n", r.MaxSearchRounds)
	cmd.Printf("  Context influence: %d%%\n", r.ContextInfluence)
	cmd.Printf("  Keywords: %d joined with %s\n", r.MaxSearchKeywords, r.KeywordBooleanOperator)
	cmd.Printf("  LLM planning: %s\n", yesNo(r.LLMPlanning))
	cmd.Printf("  Refinement: %s\n", yesNo(r.EnableRefinement))
	cmd.Printf("  Timeouts: store %s, language %s\n", r.StoreTimeout, r.LanguageTimeout)
	cmd.Println()

	cmd.Println("[LLM]")
	if settings.LLM.Provider == "" {
		cmd.Println("  Provider: (not set, heuristics only)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		if settings.LLM.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
		}
		if settings.LLM.Provider.RequiresAPIKey() {
			if settings.LLM.APIKey != "" {
				cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
			} else {
				cmd.Printf("  API Key: (not set)\n")
			}
		}
		status := "configured"
		if !settings.LLM.IsConfigured() {
			status = "not configured"
		}
		cmd.Printf("  Status: %s\n", status)
	}
	cmd.Println()

	cmd.Println("[Post-processing]")
	if len(settings.PostProcessors) == 0 {
		cmd.Println("  Chain: (empty)")
	} else {
		cmd.Printf("  Chain: %s\n", strings.Join(settings.PostProcessors, " -> "))
	}
	printHookOptions(cmd, settings.PostProcessorOptions)
	cmd.Println()

	cmd.Println("[Conversation]")
	cmd.Printf("  Backend: %s\n", settings.Conversation.Backend)
	if settings.Conversation.Backend == domain.ConversationBackendRedis {
		cmd.Printf("  Redis: %s\n", settings.Conversation.RedisAddr)
	}
	cmd.Printf("  TTL: %s\n", settings.Conversation.TTL)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s:%d\n", settings.Server.Host, settings.Server.Port)
	cmd.Printf("  Concurrent sessions: %d\n", settings.Server.MaxConcurrentSessions)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'shelfsearch settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if key == "llm.api_key" {
		shown = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readSecret(cmd, reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo when input is the terminal, otherwise a
// plain line.
func readSecret(cmd *cobra.Command, reader *bufio.Reader) string {
	if cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(secret)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// printHookOptions lists per-hook options as hook.option: value, sorted.
func printHookOptions(cmd *cobra.Command, options map[string]map[string]any) {
	keys := make([]string, 0)
	values := make(map[string]any)
	for hook, opts := range options {
		for name, val := range opts {
			key := hook + "." + name
			keys = append(keys, key)
			values[key] = val
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		cmd.Printf("  %s: %q\n", key, fmt.Sprint(values[key]))
	}
}
