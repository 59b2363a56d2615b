// Package postprocessors provides the research hook chain and its built-in hooks.
package postprocessors

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/logger"
)

// Ensure Chain implements the interface.
var _ driven.PostProcessorChain = (*Chain)(nil)

// Hook stages reported in failures.
const (
	StageHits     = "hits"
	StageExcerpts = "excerpts"
)

// Chain runs hooks in registration order. Registration happens at
// startup; after Seal the chain is read-only and safe for concurrent use.
type Chain struct {
	hooks  []driven.PostProcessor
	sealed atomic.Bool
}

// NewChain creates a chain with the given hooks, in order.
func NewChain(hooks ...driven.PostProcessor) *Chain {
	return &Chain{hooks: hooks}
}

// Register appends a hook. Names must be unique.
func (c *Chain) Register(hook driven.PostProcessor) error {
	if c.sealed.Load() {
		return fmt.Errorf("register %s: %w", hook.Name(), domain.ErrRegistrySealed)
	}
	for _, h := range c.hooks {
		if h.Name() == hook.Name() {
			return fmt.Errorf("register %s: %w", hook.Name(), domain.ErrAlreadyExists)
		}
	}
	c.hooks = append(c.hooks, hook)
	return nil
}

// Seal freezes the chain.
func (c *Chain) Seal() {
	c.sealed.Store(true)
}

// Len returns the number of hooks.
func (c *Chain) Len() int {
	return len(c.hooks)
}

// Names returns hook names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.hooks))
	for i, h := range c.hooks {
		names[i] = h.Name()
	}
	return names
}

// ApplyHits pipes hits through every HitProcessor. A failing hook is
// skipped: the next hook receives the failing hook's input.
func (c *Chain) ApplyHits(ctx context.Context, hits []domain.Hit) ([]domain.Hit, []driven.HookFailure) {
	var failures []driven.HookFailure
	for _, h := range c.hooks {
		p, ok := h.(driven.HitProcessor)
		if !ok {
			continue
		}
		out, err := runIsolated(func() ([]domain.Hit, error) {
			return p.OnHits(ctx, cloneHits(hits))
		})
		if err != nil {
			failures = append(failures, failure(h.Name(), StageHits, err))
			continue
		}
		hits = out
	}
	return hits, failures
}

// ApplyExcerpts pipes excerpts through every ExcerptProcessor with the
// same isolation as ApplyHits.
func (c *Chain) ApplyExcerpts(
	ctx context.Context, excerpts []domain.Excerpt,
) ([]domain.Excerpt, []driven.HookFailure) {
	var failures []driven.HookFailure
	for _, h := range c.hooks {
		p, ok := h.(driven.ExcerptProcessor)
		if !ok {
			continue
		}
		out, err := runIsolated(func() ([]domain.Excerpt, error) {
			return p.OnExcerpts(ctx, append([]domain.Excerpt(nil), excerpts...))
		})
		if err != nil {
			failures = append(failures, failure(h.Name(), StageExcerpts, err))
			continue
		}
		excerpts = out
	}
	return excerpts, failures
}

// runIsolated converts a hook panic into an error.
func runIsolated[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func failure(name, stage string, err error) driven.HookFailure {
	logger.Warn("Hook %s failed on %s: %v", name, stage, err)
	return driven.HookFailure{Hook: name, Stage: stage, Err: fmt.Errorf("%w: %w", domain.ErrPluginFailed, err)}
}

// cloneHits copies hits so a failing hook cannot leave partial edits behind.
func cloneHits(hits []domain.Hit) []domain.Hit {
	out := make([]domain.Hit, len(hits))
	for i, h := range hits {
		h.Terms = append([]string(nil), h.Terms...)
		out[i] = h
	}
	return out
}
