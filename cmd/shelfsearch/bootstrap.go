package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/ai"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/config/overlay"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/language"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/shelfsearch/internal/adapters/driving/cli"
	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/core/services"
	"github.com/custodia-labs/shelfsearch/internal/logger"
	"github.com/custodia-labs/shelfsearch/internal/metrics"
	"github.com/custodia-labs/shelfsearch/internal/postprocessors"
)

// sweepInterval is how often expired in-memory conversations are dropped.
const sweepInterval = time.Minute

// bootstrap wires the driven adapters into the core services.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	base, err := newConfigStore(dir, opts.Ephemeral)
	if err != nil {
		return nil, err
	}
	v := opts.Overrides
	if v == nil {
		v = overlay.NewViper()
	}
	configStore := overlay.New(base, v)

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	recorder := metrics.NewRecorder()
	svc := &cli.Services{
		Settings: settingsService,
		Metrics:  recorder,
	}

	// Settings stay editable while the library or the research limits are broken.
	cfg, err := settings.Research.Validate()
	if err != nil {
		svc.LibraryErr = err
		return svc, nil
	}
	store, err := sqlite.NewStore(settings.LibraryPath)
	if err != nil {
		svc.LibraryErr = err
		return svc, nil
	}

	var closers []func() error
	closers = append(closers, store.Close)
	fail := func(err error) (*cli.Services, error) {
		_ = closeAll(closers)
		return nil, err
	}

	chain, err := buildChain(settings.PostProcessors, settings.PostProcessorOptions)
	if err != nil {
		return fail(err)
	}

	conversations, err := newConversationStore(ctx, settings.Conversation)
	if err != nil {
		return fail(err)
	}
	if c, ok := conversations.(interface{ Close() error }); ok {
		closers = append(closers, c.Close)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"), language.DefaultPrompts())
	if err != nil {
		return fail(err)
	}

	llm := ai.Initialise(ctx, &settings.LLM, prompts)
	for _, w := range llm.Warnings {
		logger.Warn("%s", w)
	}
	if llm.FellBack && settings.LLM.Provider != "" {
		recorder.LanguageFallback("init")
	}
	closers = append(closers, func() error {
		llm.Close()
		return nil
	})

	research := services.NewResearchService(store, llm.Language, conversations, chain, cfg, settings.Server.MaxConcurrentSessions)
	research.SetMetrics(recorder)
	research.SetConversationTTL(settings.Conversation.TTL)

	svc.Research = research
	svc.Library = services.NewLibraryService(store, chain, cfg.StoreTimeout)
	svc.Background = backgroundTasks(prompts, conversations)
	svc.Close = func() error { return closeAll(closers) }

	logger.Debug("library %s, hooks %v, conversations %s", store.Path(), chain.Names(), settings.Conversation.Backend)
	return svc, nil
}

func newConfigStore(dir string, ephemeral bool) (driven.ConfigStore, error) {
	if ephemeral {
		return memory.NewConfigStore(), nil
	}
	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return store, nil
}

// buildChain builds the configured hooks in order with their options.
// Unknown names are a configuration error.
func buildChain(names []string, options map[string]map[string]any) (*postprocessors.Chain, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	chain, err := registry.BuildChain(names, options)
	if err != nil {
		return nil, fmt.Errorf("building post-processing chain: %w", err)
	}
	return chain, nil
}

func newConversationStore(ctx context.Context, cfg domain.ConversationSettings) (driven.ConversationStore, error) {
	switch cfg.Backend {
	case domain.ConversationBackendRedis:
		store, err := redis.NewConversationStore(ctx, redis.Options{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, fmt.Errorf("conversation store: %w", err)
		}
		return store, nil
	default:
		return memory.NewConversationStore(), nil
	}
}

// backgroundTasks hot-reloads prompts and sweeps expired in-memory
// conversations until ctx is done.
func backgroundTasks(prompts *file.PromptStore, conversations driven.ConversationStore) func(ctx context.Context) {
	return func(ctx context.Context) {
		var g errgroup.Group
		g.Go(func() error {
			err := prompts.Watch(ctx, func(name string) {
				logger.Info("prompt %s reloaded", name)
			})
			if err != nil {
				logger.Warn("prompt reload disabled: %v", err)
			}
			return nil
		})
		if mem, ok := conversations.(*memory.ConversationStore); ok {
			g.Go(func() error {
				sweep(ctx, mem, sweepInterval)
				return nil
			})
		}
		_ = g.Wait()
	}
}

func sweep(ctx context.Context, store *memory.ConversationStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug("dropped %d expired conversations", n)
			}
		}
	}
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
