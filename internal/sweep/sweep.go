// Package sweep evaluates a composite agent's referee across named sampling
// configurations, and replays a referee's committed answers from a captured
// transcript.
package sweep

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/personalityai/personality/internal/transcript"
)

// Input validation errors. All are fatal and raised before any completion
// call is made.
var (
	ErrNoPrompts      = errors.New("at least one prompt is required")
	ErrLengthMismatch = errors.New("prompts and choices must be the same length")
	ErrReplayShape    = errors.New("replay input must map exactly one composite name to its transcript")
)

// Agent is the composite-agent surface the harness drives. Implemented by
// persona.Composite.
type Agent interface {
	Answer(ctx context.Context, prompt string) (string, error)
	AnswerFrom(ctx context.Context, prompt string, choices []string) (string, error)
	ClearHistory()
	RefereeTemperature() float64
	SetRefereeTemperature(t float64)
}

// Level is one named referee configuration. Levels are an ordered slice
// rather than a map so sweep iteration order is deterministic.
type Level struct {
	Name        string
	Temperature float64
}

// Harness sweeps the referee across configurations.
type Harness struct {
	agent  Agent
	logger *logrus.Logger
}

// NewHarness builds a harness around the given composite agent.
func NewHarness(agent Agent, logger *logrus.Logger) *Harness {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Harness{agent: agent, logger: logger}
}

// Sweep runs every prompt through the agent once per level, collecting the
// committed answers per level name. With choices supplied, each prompt is
// answered in bypass mode against its captured candidate pair; otherwise
// the members generate candidates in full. History is cleared before and
// after each level, and the referee's original temperature is restored on
// every exit path, including mid-sweep failure.
func (h *Harness) Sweep(ctx context.Context, prompts []string, choices []transcript.Pair, levels []Level) (map[string][]string, error) {
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}
	if choices != nil && len(choices) != len(prompts) {
		return nil, fmt.Errorf("%w: %d prompts, %d choices", ErrLengthMismatch, len(prompts), len(choices))
	}

	orig := h.agent.RefereeTemperature()
	defer h.agent.SetRefereeTemperature(orig)

	results := make(map[string][]string, len(levels))
	for _, level := range levels {
		h.logger.Infof("generating referee responses at temperature %.2f (%s)", level.Temperature, level.Name)

		h.agent.SetRefereeTemperature(level.Temperature)
		h.agent.ClearHistory()

		answers := make([]string, 0, len(prompts))
		for i, prompt := range prompts {
			var (
				answer string
				err    error
			)
			if choices != nil {
				answer, err = h.agent.AnswerFrom(ctx, prompt, []string{choices[i].First, choices[i].Second})
			} else {
				answer, err = h.agent.Answer(ctx, prompt)
			}
			if err != nil {
				return nil, fmt.Errorf("sweep %q failed at prompt %q: %w", level.Name, prompt, err)
			}
			answers = append(answers, answer)
		}

		results[level.Name] = answers
		h.agent.ClearHistory()
	}

	return results, nil
}

// Replay extracts a referee's past committed answers from a captured
// transcript. The input must map exactly one composite-agent name to its
// non-empty transcript text; answers are the ordered contents of the lines
// tagged with that name.
func Replay(captured map[string]string) ([]string, error) {
	if len(captured) != 1 {
		return nil, fmt.Errorf("%w, got %d entries", ErrReplayShape, len(captured))
	}

	for name, text := range captured {
		if text == "" {
			return nil, fmt.Errorf("%w: transcript for %q is empty", ErrReplayShape, name)
		}
		return transcript.Tagged(transcript.Parse(text), name), nil
	}
	return nil, ErrReplayShape // unreachable
}
