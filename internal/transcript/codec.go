package transcript

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// mediumTemperature is pinned on the referee while generating a transcript,
// so captured candidate pairs are comparable across runs.
const mediumTemperature = 0.5

// Selector names what Extract pulls out of a transcript.
type Selector string

const (
	// SelectorPairs extracts the paired member responses.
	SelectorPairs Selector = "anthro"
	// SelectorPrompts extracts the user prompts.
	SelectorPrompts Selector = "user"
)

// Input validation errors. Both are fatal and never retried.
var (
	ErrEmptyTranscript = errors.New("transcript must be non-empty text")
	ErrUnknownSelector = errors.New(`selector must be "anthro", "user", or both`)
	ErrNoPrompts       = errors.New("at least one prompt is required")
)

// Pair holds the two member responses captured for one prompt, in member
// tag order.
type Pair struct {
	First  string
	Second string
}

// Generator is the composite-agent surface the codec drives. Implemented
// by persona.Composite.
type Generator interface {
	Answer(ctx context.Context, prompt string) (string, error)
	ClearHistory()
	Thoughts() (string, bool)
	RefereeTemperature() float64
	SetRefereeTemperature(t float64)
}

// Codec generates transcripts by driving a composite agent, or parses
// existing transcripts back into structured prompt/response data. The two
// tags identify the member personas whose responses get paired.
type Codec struct {
	firstTag  string
	secondTag string
	logger    *logrus.Logger
}

// NewCodec builds a codec for the two demonstrative member tags.
func NewCodec(firstTag, secondTag string, logger *logrus.Logger) *Codec {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Codec{firstTag: firstTag, secondTag: secondTag, logger: logger}
}

// Collect drives the agent through the prompts in order (history
// accumulating across prompts), then pairs the two member tags' responses
// positionally. The referee temperature is pinned at 0.5 for the pass and
// restored afterward; with persist set, the override and the generated
// history are left in place instead. A failing answer restores the
// temperature before escalating.
func (c *Codec) Collect(ctx context.Context, gen Generator, prompts []string, persist bool) ([]Pair, error) {
	if len(prompts) == 0 {
		return nil, ErrNoPrompts
	}

	orig := gen.RefereeTemperature()
	gen.SetRefereeTemperature(mediumTemperature)
	gen.ClearHistory()

	for _, prompt := range prompts {
		if _, err := gen.Answer(ctx, prompt); err != nil {
			gen.SetRefereeTemperature(orig)
			return nil, fmt.Errorf("transcript generation failed at prompt %q: %w", prompt, err)
		}
	}

	text, ok := gen.Thoughts()
	if !ok {
		gen.SetRefereeTemperature(orig)
		return nil, errors.New("agent produced no transcript")
	}
	pairs := c.pairs(Parse(text))

	if !persist {
		gen.ClearHistory()
		gen.SetRefereeTemperature(orig)
	}

	c.logger.Debugf("collected %d response pairs from %d prompts", len(pairs), len(prompts))
	return pairs, nil
}

// Extraction is the structured result of parsing a transcript.
type Extraction struct {
	Prompts []string
	Pairs   []Pair
}

// Extract parses an existing transcript. With SelectorPairs it returns the
// paired member responses, with SelectorPrompts the ordered user prompts,
// and with both selectors (any order) both. No selector defaults to
// SelectorPairs. Unknown selector values or selector combinations are
// rejected, as is an empty transcript.
func (c *Codec) Extract(chatHistory string, selectors ...Selector) (*Extraction, error) {
	if chatHistory == "" {
		return nil, ErrEmptyTranscript
	}

	wantPairs, wantPrompts, err := resolveSelectors(selectors)
	if err != nil {
		return nil, err
	}

	entries := Parse(chatHistory)
	out := &Extraction{}
	if wantPairs {
		out.Pairs = c.pairs(entries)
	}
	if wantPrompts {
		out.Prompts = Tagged(entries, UserTag)
	}
	return out, nil
}

func resolveSelectors(selectors []Selector) (wantPairs, wantPrompts bool, err error) {
	switch len(selectors) {
	case 0:
		return true, false, nil
	case 1:
		switch selectors[0] {
		case SelectorPairs:
			return true, false, nil
		case SelectorPrompts:
			return false, true, nil
		}
		return false, false, fmt.Errorf("%w, got %q", ErrUnknownSelector, selectors[0])
	case 2:
		if (selectors[0] == SelectorPairs && selectors[1] == SelectorPrompts) ||
			(selectors[0] == SelectorPrompts && selectors[1] == SelectorPairs) {
			return true, true, nil
		}
		return false, false, fmt.Errorf("%w, got %q and %q", ErrUnknownSelector, selectors[0], selectors[1])
	default:
		return false, false, fmt.Errorf("%w, got %d selectors", ErrUnknownSelector, len(selectors))
	}
}

// pairs zips the two tags' entries positionally, truncating to the shorter
// list. Unpaired excess lines are dropped, never an error.
func (c *Codec) pairs(entries []Entry) []Pair {
	first := Tagged(entries, c.firstTag)
	second := Tagged(entries, c.secondTag)

	n := len(first)
	if len(second) < n {
		n = len(second)
	}
	pairs := make([]Pair, n)
	for i := 0; i < n; i++ {
		pairs[i] = Pair{First: first[i], Second: second[i]}
	}
	return pairs
}
