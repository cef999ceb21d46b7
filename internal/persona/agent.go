// Package persona implements the two-level persona/referee orchestration
// engine: single-shot PersonaAgents wrapping one sampling configuration,
// and the CompositeAgent that drives a think/deliberate/commit turn across
// an ordered member set with a distinguished referee.
package persona

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/personalityai/personality/internal/llm"
	"github.com/personalityai/personality/internal/models"
)

// DefaultMaxTokens caps a persona completion when the caller does not say.
const DefaultMaxTokens = 100

// Spec describes one persona to instantiate: identity, directive and
// sampling configuration, with optional per-persona provider and model
// overrides. Zero-valued fields fall back to the composite defaults.
type Spec struct {
	Name          string
	Directive     string
	Provider      llm.Provider
	Model         string
	Temperature   float64
	Seed          float64
	RepeatPenalty float64
}

// Runtime carries the shared collaborators personas run against.
type Runtime struct {
	Provider llm.Provider
	Model    string
	Retry    llm.RetryConfig // zero value selects llm.DefaultRetryConfig
	Logger   *logrus.Logger  // nil selects logrus.StandardLogger
}

func (rt Runtime) normalized() Runtime {
	if rt.Retry.MaxAttempts == 0 {
		rt.Retry = llm.DefaultRetryConfig()
	}
	if rt.Logger == nil {
		rt.Logger = logrus.StandardLogger()
	}
	return rt
}

// Agent is a single sampling-configured persona. Its conversation buffer
// holds exactly one system message between calls: Respond appends input
// temporarily and resets the buffer before returning (single-shot memory).
type Agent struct {
	name      string
	directive string
	provider  llm.Provider
	model     string
	sampling  models.SamplingParams
	retry     llm.RetryConfig
	logger    *logrus.Logger
	buffer    models.Conversation
}

// NewAgent instantiates a persona from its spec, filling unset sampling
// fields with the engine defaults (temperature 0.5, random rounded seed,
// repeat-penalty 1.1) and unset provider/model from the runtime.
func NewAgent(spec Spec, rt Runtime) *Agent {
	rt = rt.normalized()

	provider := spec.Provider
	if provider == nil {
		provider = rt.Provider
	}
	model := spec.Model
	if model == "" {
		model = rt.Model
	}

	temperature := spec.Temperature
	if temperature == 0 {
		temperature = models.DefaultTemperature
	}
	seed := models.RandomSeed()
	if spec.Seed != 0 {
		seed = models.RoundSeed(spec.Seed)
	}
	repeatPenalty := spec.RepeatPenalty
	if repeatPenalty == 0 {
		repeatPenalty = models.DefaultRepeatPenalty
	}

	a := &Agent{
		name:      spec.Name,
		directive: spec.Directive,
		provider:  provider,
		model:     model,
		sampling: models.SamplingParams{
			Temperature:   temperature,
			Seed:          seed,
			RepeatPenalty: repeatPenalty,
		},
		retry:  rt.Retry,
		logger: rt.Logger,
	}
	a.ClearHistory()
	return a
}

// Name returns the persona's identity.
func (a *Agent) Name() string { return a.name }

// Directive returns the system message guiding the persona.
func (a *Agent) Directive() string { return a.directive }

// Temperature returns the current sampling temperature.
func (a *Agent) Temperature() float64 { return a.sampling.Temperature }

// SetTemperature overrides the sampling temperature. Callers that override
// it for a pass must restore the prior value on every exit path.
func (a *Agent) SetTemperature(t float64) { a.sampling.Temperature = t }

// Seed returns the integer sampling seed.
func (a *Agent) Seed() int { return a.sampling.Seed }

// RepeatPenalty returns the stored repeat penalty. It is not forwarded to
// completion requests.
func (a *Agent) RepeatPenalty() float64 { return a.sampling.RepeatPenalty }

// Respond appends the conversation to the persona's buffer, requests one
// completion and returns its text. The buffer is reset to system-only on
// every exit path. Transient completion failures are retried under the
// agent's retry policy before the failure escalates.
func (a *Agent) Respond(ctx context.Context, convo models.Conversation, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	a.buffer = append(a.buffer, convo...)
	defer a.ClearHistory()

	req := &models.CompletionRequest{
		ID:          uuid.NewString(),
		Model:       a.model,
		Messages:    a.buffer.Clone(),
		MaxTokens:   maxTokens,
		Temperature: a.sampling.Temperature,
		Seed:        a.sampling.Seed,
	}

	a.logger.Debugf("%s thinking...", a.name)
	resp, err := llm.CompleteWithRetry(ctx, a.retry, a.logger, func() (*models.CompletionResponse, error) {
		return a.provider.Complete(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("persona %q completion failed: %w", a.name, err)
	}
	a.logger.Debugf("%s finished thinking", a.name)

	return resp.Content, nil
}

// RespondPrompt wraps a bare text prompt as a single user message.
func (a *Agent) RespondPrompt(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return a.Respond(ctx, models.Prompt(prompt), maxTokens)
}

// ClearHistory resets the buffer to the directive system message only.
// Idempotent, callable at any time.
func (a *Agent) ClearHistory() {
	a.buffer = models.Conversation{models.SystemMessage(a.directive)}
}

// Buffer returns a copy of the conversation buffer, for inspection.
func (a *Agent) Buffer() models.Conversation {
	return a.buffer.Clone()
}
