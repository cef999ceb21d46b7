package persona

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personalityai/personality/internal/llm"
	"github.com/personalityai/personality/internal/models"
)

// mockProvider is a scripted completion backend for tests.
type mockProvider struct {
	mu       sync.Mutex
	requests []*models.CompletionRequest
	failures int // fail this many calls before succeeding
	reply    func(req *models.CompletionRequest) string
	err      error
}

func (m *mockProvider) Complete(_ context.Context, req *models.CompletionRequest) (*models.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.failures > 0 {
		m.failures--
		if m.err != nil {
			return nil, m.err
		}
		return nil, &llm.RateLimitError{Provider: "mock", Message: "limited"}
	}

	content := "mock response"
	if m.reply != nil {
		content = m.reply(req)
	}
	return &models.CompletionResponse{
		RequestID:    req.ID,
		ProviderName: "mock",
		Model:        req.Model,
		Content:      content,
		FinishReason: "stop",
	}, nil
}

func (m *mockProvider) HealthCheck(context.Context) error { return nil }

func (m *mockProvider) calls() []*models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.CompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func testRuntime(provider llm.Provider) Runtime {
	return Runtime{
		Provider: provider,
		Model:    "test-model",
		Retry:    llm.RetryConfig{MaxAttempts: 6, Delay: time.Millisecond},
	}
}

func TestNewAgent_Defaults(t *testing.T) {
	a := NewAgent(Spec{Name: "Angel", Directive: "persuade honesty"}, testRuntime(&mockProvider{}))

	assert.Equal(t, "Angel", a.Name())
	assert.Equal(t, "persuade honesty", a.Directive())
	assert.Equal(t, models.DefaultTemperature, a.Temperature())
	assert.Equal(t, models.DefaultRepeatPenalty, a.RepeatPenalty())
	assert.True(t, a.Seed() == 0 || a.Seed() == 1, "default seed should be a rounded unit float")
}

func TestNewAgent_SpecOverrides(t *testing.T) {
	shared := &mockProvider{}
	override := &mockProvider{reply: func(*models.CompletionRequest) string { return "from override" }}

	a := NewAgent(Spec{
		Name:          "Devil",
		Directive:     "persuade convenient lies",
		Provider:      override,
		Model:         "other-model",
		Temperature:   0.9,
		Seed:          41.7,
		RepeatPenalty: 1.3,
	}, testRuntime(shared))

	assert.Equal(t, 0.9, a.Temperature())
	assert.Equal(t, 42, a.Seed())
	assert.Equal(t, 1.3, a.RepeatPenalty())

	reply, err := a.RespondPrompt(context.Background(), "hello", 0)
	require.NoError(t, err)
	assert.Equal(t, "from override", reply)
	assert.Empty(t, shared.calls(), "override provider should handle the call")
	require.Len(t, override.calls(), 1)
	assert.Equal(t, "other-model", override.calls()[0].Model)
}

func TestRespond_BuffersSystemPlusInput(t *testing.T) {
	provider := &mockProvider{}
	a := NewAgent(Spec{Name: "Angel", Directive: "be honest"}, testRuntime(provider))

	_, err := a.Respond(context.Background(), models.Conversation{
		models.SystemMessage("composite bio"),
		models.UserMessage("should I?"),
	}, 0)
	require.NoError(t, err)

	calls := provider.calls()
	require.Len(t, calls, 1)
	req := calls[0]

	require.Len(t, req.Messages, 3)
	assert.Equal(t, models.SystemMessage("be honest"), req.Messages[0])
	assert.Equal(t, models.SystemMessage("composite bio"), req.Messages[1])
	assert.Equal(t, models.UserMessage("should I?"), req.Messages[2])
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.NotEmpty(t, req.ID)
}

func TestRespond_ResetsBufferAfterCall(t *testing.T) {
	a := NewAgent(Spec{Name: "Angel", Directive: "be honest"}, testRuntime(&mockProvider{}))

	_, err := a.RespondPrompt(context.Background(), "first", 0)
	require.NoError(t, err)
	assert.Equal(t, models.Conversation{models.SystemMessage("be honest")}, a.Buffer())

	// A second call must not see the first call's input.
	provider := &mockProvider{}
	a = NewAgent(Spec{Name: "Angel", Directive: "be honest"}, testRuntime(provider))
	_, _ = a.RespondPrompt(context.Background(), "first", 0)
	_, _ = a.RespondPrompt(context.Background(), "second", 0)

	calls := provider.calls()
	require.Len(t, calls, 2)
	assert.Len(t, calls[1].Messages, 2)
	assert.Equal(t, "second", calls[1].Messages[1].Content)
}

func TestRespond_ResetsBufferOnFailure(t *testing.T) {
	provider := &mockProvider{failures: 100}
	rt := testRuntime(provider)
	rt.Retry = llm.RetryConfig{MaxAttempts: 2, Delay: time.Millisecond}
	a := NewAgent(Spec{Name: "Angel", Directive: "be honest"}, rt)

	_, err := a.RespondPrompt(context.Background(), "doomed", 0)
	require.Error(t, err)
	assert.Equal(t, models.Conversation{models.SystemMessage("be honest")}, a.Buffer())
}

func TestRespond_RetriesTransientFailures(t *testing.T) {
	provider := &mockProvider{failures: 2, reply: func(*models.CompletionRequest) string { return "recovered" }}
	a := NewAgent(Spec{Name: "Angel", Directive: "be honest"}, testRuntime(provider))

	reply, err := a.RespondPrompt(context.Background(), "try hard", 0)
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply)
	assert.Len(t, provider.calls(), 3)
}

func TestRespond_ExhaustedRetriesPropagate(t *testing.T) {
	provider := &mockProvider{failures: 100}
	rt := testRuntime(provider)
	rt.Retry = llm.RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}
	a := NewAgent(Spec{Name: "Angel", Directive: "be honest"}, rt)

	_, err := a.RespondPrompt(context.Background(), "doomed", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `persona "Angel"`)
	assert.Len(t, provider.calls(), 3)
}

func TestRespond_FatalFailureNotRetried(t *testing.T) {
	provider := &mockProvider{
		failures: 100,
		err:      llm.NewProviderError("mock", "bad request").WithStatusCode(http.StatusBadRequest),
	}
	a := NewAgent(Spec{Name: "Angel", Directive: "be honest"}, testRuntime(provider))

	_, err := a.RespondPrompt(context.Background(), "nope", 0)
	require.Error(t, err)
	assert.Len(t, provider.calls(), 1)
}

func TestClearHistory_Idempotent(t *testing.T) {
	a := NewAgent(Spec{Name: "Angel", Directive: "be honest"}, testRuntime(&mockProvider{}))

	a.ClearHistory()
	once := a.Buffer()
	a.ClearHistory()
	twice := a.Buffer()

	assert.Equal(t, once, twice)
	assert.Equal(t, models.Conversation{models.SystemMessage("be honest")}, twice)
}

func TestSetTemperature(t *testing.T) {
	a := NewAgent(Spec{Name: "Referee", Directive: "choose"}, testRuntime(&mockProvider{}))

	a.SetTemperature(0.8)
	assert.Equal(t, 0.8, a.Temperature())
}
