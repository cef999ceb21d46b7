package persona

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/personalityai/personality/internal/models"
	"github.com/personalityai/personality/internal/transcript"
)

// Configuration errors raised at composite construction. Both are fatal and
// never retried.
var (
	ErrMissingReferee    = errors.New("missing required persona: referee")
	ErrNotEnoughPersonas = errors.New("at least three personas required: a referee and two members")
)

const refereeName = "referee"

// Composite orchestrates a referee and an ordered member set. One Answer
// call drives one conversational turn: the user prompt is broadcast to
// every member in order, the referee deliberates over the candidates, and
// the committed answer lands in the persistent history. The thoughtbubble
// records every exchanged message as a tagged entry.
type Composite struct {
	name    string
	bio     string
	referee *Agent
	members []*Agent
	byName  map[string]*Agent
	history models.Conversation
	bubble  []transcript.Entry
	rt      Runtime
}

// Option configures composite construction.
type Option func(*Composite)

// WithHistory seeds the persistent history with prior turns, after the bio
// system message. The slice is copied; each composite owns its history.
func WithHistory(history models.Conversation) Option {
	return func(c *Composite) {
		c.history = append(c.history, history.Clone()...)
	}
}

// NewComposite builds a composite agent from a persona specification list.
// The list must contain a persona named "referee" (case-insensitive) and at
// least three entries in total; violations surface as the corresponding
// configuration error.
func NewComposite(name, bio string, specs []Spec, rt Runtime, opts ...Option) (*Composite, error) {
	rt = rt.normalized()

	hasReferee := false
	for _, spec := range specs {
		if strings.EqualFold(spec.Name, refereeName) {
			hasReferee = true
			break
		}
	}
	if !hasReferee {
		return nil, ErrMissingReferee
	}
	if len(specs) < 3 {
		return nil, fmt.Errorf("%w, got %d", ErrNotEnoughPersonas, len(specs))
	}

	c := &Composite{
		name:    name,
		bio:     bio,
		byName:  make(map[string]*Agent, len(specs)),
		history: models.Conversation{models.SystemMessage(bio)},
		rt:      rt,
	}

	for _, spec := range specs {
		agent := NewAgent(spec, rt)
		c.byName[strings.ToLower(spec.Name)] = agent
		if strings.EqualFold(spec.Name, refereeName) {
			c.referee = agent
			continue
		}
		c.members = append(c.members, agent)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the composite's identity, the tag its committed answers
// carry in the transcript.
func (c *Composite) Name() string { return c.name }

// Referee returns the persona deliberating over member candidates.
func (c *Composite) Referee() *Agent { return c.referee }

// Members returns the ordered member personas, referee excluded.
func (c *Composite) Members() []*Agent {
	out := make([]*Agent, len(c.members))
	copy(out, c.members)
	return out
}

// Member looks a persona up by case-insensitive name, referee included.
func (c *Composite) Member(name string) (*Agent, bool) {
	a, ok := c.byName[strings.ToLower(name)]
	return a, ok
}

// RefereeTemperature reads the referee's sampling temperature.
func (c *Composite) RefereeTemperature() float64 { return c.referee.Temperature() }

// SetRefereeTemperature overrides the referee's sampling temperature.
func (c *Composite) SetRefereeTemperature(t float64) { c.referee.SetTemperature(t) }

// Think solicits one candidate response per member, in member order, each
// call blocking until its completion returns. Every response is appended to
// the thoughtbubble under the member's tag.
func (c *Composite) Think(ctx context.Context, convo models.Conversation) ([]string, error) {
	c.rt.Logger.Debugf("%s thinking across %d members...", c.name, len(c.members))

	responses := make([]string, 0, len(c.members))
	for _, member := range c.members {
		response, err := member.Respond(ctx, convo, 0)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
		c.bubble = append(c.bubble, transcript.Entry{Tag: member.Name(), Text: response})
	}
	return responses, nil
}

// Answer drives one full turn: broadcast the prompt to the members,
// deliberate via the referee, commit the final answer to the persistent
// history and return it.
func (c *Composite) Answer(ctx context.Context, prompt string) (string, error) {
	return c.answer(ctx, prompt, nil, false)
}

// AnswerFrom is the bypass variant: it skips member solicitation and hands
// the referee externally supplied candidates, enabling replay of captured
// responses without regenerating them.
func (c *Composite) AnswerFrom(ctx context.Context, prompt string, choices []string) (string, error) {
	return c.answer(ctx, prompt, choices, true)
}

func (c *Composite) answer(ctx context.Context, prompt string, choices []string, bypass bool) (string, error) {
	c.history = append(c.history, models.UserMessage(prompt))
	c.bubble = append(c.bubble, transcript.Entry{Tag: transcript.UserTag, Text: prompt})

	candidates := choices
	if !bypass {
		var err error
		candidates, err = c.Think(ctx, c.history.Clone())
		if err != nil {
			return "", err
		}
	}

	deliberation := append(c.history.Clone(), models.SystemMessage(selectionInstruction(candidates)))
	final, err := c.referee.Respond(ctx, deliberation, 0)
	if err != nil {
		return "", fmt.Errorf("referee deliberation failed: %w", err)
	}

	c.history = append(c.history, models.AssistantMessage(final))
	c.bubble = append(c.bubble, transcript.Entry{Tag: c.name, Text: final})
	return final, nil
}

// selectionInstruction embeds the serialized candidate list in the
// synthetic system message the referee deliberates over.
func selectionInstruction(candidates []string) string {
	quoted := make([]string, len(candidates))
	for i, candidate := range candidates {
		quoted[i] = fmt.Sprintf("%q", candidate)
	}
	return fmt.Sprintf("CHOOSE A RESPONSE:```[%s]```.", strings.Join(quoted, ", "))
}

// Thoughts serializes the thoughtbubble. The boolean is false when the
// bubble is empty; callers must treat that distinctly from transcript text.
func (c *Composite) Thoughts() (string, bool) {
	if len(c.bubble) == 0 {
		c.rt.Logger.Debugf("%s has no thoughts yet", c.name)
		return "", false
	}
	return transcript.Render(c.bubble), true
}

// Thoughtbubble returns a copy of the structured entries.
func (c *Composite) Thoughtbubble() []transcript.Entry {
	out := make([]transcript.Entry, len(c.bubble))
	copy(out, c.bubble)
	return out
}

// History returns a copy of the persistent history buffer.
func (c *Composite) History() models.Conversation {
	return c.history.Clone()
}

// ClearHistory resets the persistent history to the bio system message,
// empties the thoughtbubble and recursively clears the referee and every
// member. Idempotent.
func (c *Composite) ClearHistory() {
	c.history = models.Conversation{models.SystemMessage(c.bio)}
	c.bubble = nil
	c.referee.ClearHistory()
	for _, member := range c.members {
		member.ClearHistory()
	}
	c.rt.Logger.Debugf("chat history with %s cleared", c.name)
}

// About summarizes the composite: its name, bio and member personas.
func (c *Composite) About() string {
	names := make([]string, len(c.members))
	for i, member := range c.members {
		names[i] = member.Name()
	}
	return fmt.Sprintf("%s: %s (members: %s)", c.name, c.bio, strings.Join(names, ", "))
}
