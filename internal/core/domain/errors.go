package domain

import "errors"

// Domain errors represent research failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a research configuration that violates its limits.
	ErrInvalidConfig = errors.New("invalid research configuration")

	// ErrStoreUnavailable indicates the metadata store cannot be reached.
	// A research session aborts when this is returned.
	ErrStoreUnavailable = errors.New("metadata store unavailable")

	// ErrLanguageUnavailable indicates the language capability failed or is not configured.
	// Planning falls back to heuristics and answers to a template.
	ErrLanguageUnavailable = errors.New("language service unavailable")

	// ErrLLMUnavailable indicates no LLM provider is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrUnsupportedType indicates an unknown provider or plugin name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrPluginFailed indicates a post-processing hook returned an error or panicked.
	ErrPluginFailed = errors.New("plugin failed")

	// ErrRegistrySealed indicates a registration after startup.
	ErrRegistrySealed = errors.New("plugin registry sealed")

	// ErrAlreadyExists indicates a plugin name is already registered.
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates the LLM rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// ToolErrorCode classifies failures reported through the tool gateway.
type ToolErrorCode string

// Tool error codes.
const (
	ToolErrBadRequest       ToolErrorCode = "bad_request"
	ToolErrNotFound         ToolErrorCode = "not_found"
	ToolErrStoreUnavailable ToolErrorCode = "store_unavailable"
	ToolErrInternal         ToolErrorCode = "internal_error"
)

// ToolError is a structured error returned to tool callers.
type ToolError struct {
	Code    ToolErrorCode `json:"code"`
	Message string        `json:"message"`
}

func (e *ToolError) Error() string {
	return string(e.Code) + ": " + e.Message
}

// ClassifyError maps an error chain to a tool error code.
func ClassifyError(err error) ToolErrorCode {
	var te *ToolError
	switch {
	case errors.As(err, &te):
		return te.Code
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidConfig):
		return ToolErrBadRequest
	case errors.Is(err, ErrNotFound):
		return ToolErrNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return ToolErrStoreUnavailable
	default:
		return ToolErrInternal
	}
}
