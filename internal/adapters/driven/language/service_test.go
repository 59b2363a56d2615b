package language

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// fakeLLM records chat calls and replies with a fixed answer.
type fakeLLM struct {
	reply    string
	err      error
	messages [][]driven.ChatMessage
	opts     []driven.ChatOptions
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	return f.Chat(ctx, []driven.ChatMessage{{Role: "user", Content: prompt}}, driven.ChatOptions{})
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	f.messages = append(f.messages, messages)
	f.opts = append(f.opts, opts)
	return f.reply, f.err
}

func (f *fakeLLM) ModelName() string            { return "fake" }
func (f *fakeLLM) Ping(_ context.Context) error { return nil }
func (f *fakeLLM) Close() error                 { return nil }

// fakePrompts serves prompts from a map.
type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", errors.New("missing")
}

func (p fakePrompts) Reload() {}

func TestService_ExtractKeywords(t *testing.T) {
	llm := &fakeLLM{reply: "Bussysteme CAN LIN"}
	svc := NewService(llm, nil, nil)

	got, err := svc.ExtractKeywords(context.Background(), "Welche Fahrzeug-Bussysteme gibt es", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bussysteme CAN LIN"}, got)

	require.Len(t, llm.messages, 1)
	msgs := llm.messages[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "Welche Fahrzeug-Bussysteme gibt es")
	assert.Contains(t, msgs[1].Content, "Hint: none")
	assert.Equal(t, keywordMaxTokens, llm.opts[0].MaxTokens)
}

func TestService_CustomPrompt(t *testing.T) {
	llm := &fakeLLM{reply: "a"}
	prompts := fakePrompts{
		driven.PromptKeywordExtraction: "Q=%s H=%s",
		driven.PromptSystem:            "SYS",
	}
	svc := NewService(llm, prompts, nil)

	_, err := svc.ExtractKeywords(context.Background(), "frage", "technisch")
	require.NoError(t, err)
	assert.Equal(t, "SYS", llm.messages[0][0].Content)
	assert.Equal(t, "Q=frage H=technisch", llm.messages[0][1].Content)
}

func TestService_RefineQueries(t *testing.T) {
	llm := &fakeLLM{reply: "1. FlexRay\n2. Automotive Ethernet\n"}
	svc := NewService(llm, nil, nil)

	hits := []domain.Hit{{BookID: 1, Title: "LIN-Bus kompakt"}}
	got, err := svc.RefineQueries(context.Background(), "Bussysteme", hits, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"FlexRay", "Automotive Ethernet"}, got)
	assert.Contains(t, llm.messages[0][1].Content, "- LIN-Bus kompakt")
}

func TestService_ComposeAnswer(t *testing.T) {
	llm := &fakeLLM{reply: "  CAN und LIN sind verbreitet.  "}
	svc := NewService(llm, nil, nil)

	got, err := svc.ComposeAnswer(context.Background(), driven.ComposeRequest{
		Question:  "Bussysteme",
		Hits:      []domain.Hit{{BookID: 3, Title: "Bussysteme", ISBN: "978-3", Snippet: "CAN, LIN"}},
		Excerpts:  []domain.Excerpt{{BookID: 3, Title: "Bussysteme", Text: "Ein Auszug."}},
		StyleHint: "kurz",
	})
	require.NoError(t, err)
	assert.Equal(t, "CAN und LIN sind verbreitet.", got)

	prompt := llm.messages[0][1].Content
	assert.Contains(t, prompt, "- [1] Bussysteme (ID=3, ISBN 978-3): CAN, LIN")
	assert.Contains(t, prompt, "Title: Bussysteme (ID=3)\nEin Auszug.")
	assert.Contains(t, prompt, "Style: kurz")
}

func TestService_ComposeAnswerEmptyReply(t *testing.T) {
	svc := NewService(&fakeLLM{reply: "   "}, nil, nil)

	_, err := svc.ComposeAnswer(context.Background(), driven.ComposeRequest{Question: "q"})
	assert.ErrorIs(t, err, domain.ErrLanguageUnavailable)
}

func TestService_LLMErrorIsLanguageUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	svc := NewService(&fakeLLM{err: cause}, nil, nil)

	_, err := svc.ExtractKeywords(context.Background(), "q", "")
	assert.ErrorIs(t, err, domain.ErrLanguageUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestService_RateLimitedBacksOff(t *testing.T) {
	limiter := NewRateLimiter(0)
	svc := NewService(&fakeLLM{err: domain.ErrRateLimited}, nil, limiter)

	_, err := svc.ExtractKeywords(context.Background(), "q", "")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, limiter.Allow())
}

func TestService_NilLLM(t *testing.T) {
	svc := NewService(nil, nil, nil)

	_, err := svc.RefineQueries(context.Background(), "q", nil, "")
	assert.ErrorIs(t, err, domain.ErrLanguageUnavailable)
}

func TestService_CanceledWhileWaiting(t *testing.T) {
	limiter := NewRateLimiter(0)
	limiter.Backoff(time.Hour)
	svc := NewService(&fakeLLM{reply: "x"}, nil, limiter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ExtractKeywords(ctx, "q", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, domain.ErrLanguageUnavailable)
}

func TestFormatContext_Empty(t *testing.T) {
	assert.Equal(t, "No matching books found.", formatContext(nil, nil))
}
