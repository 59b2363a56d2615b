package driven

import "time"

// ResearchMetrics records research outcomes.
// This is an optional port - services skip recording when it is nil.
type ResearchMetrics interface {
	// SessionFinished records a completed or failed session.
	SessionFinished(outcome string, rounds, hits int, elapsed time.Duration)

	// HookFailed records an isolated post-processing failure.
	HookFailed(hook, stage string)

	// LanguageFallback records a step that degraded to heuristics.
	LanguageFallback(stage string)
}
