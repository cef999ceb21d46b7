// Package models defines the conversation and completion wire types shared
// by the persona engine, the completion providers and the harnesses.
package models

import (
	"math"
	"math/rand"
	"time"
)

// Message roles. The engine only ever produces these three.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a conversation buffer.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage returns a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage returns a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage returns an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Conversation is an ordered message sequence.
type Conversation []Message

// Prompt wraps a bare text prompt as a single-message conversation.
func Prompt(text string) Conversation {
	return Conversation{UserMessage(text)}
}

// Clone returns an independent copy so callers can append freely.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	copy(out, c)
	return out
}

// SamplingParams holds the per-persona sampling configuration.
//
// RepeatPenalty is stored for forward compatibility but is not forwarded to
// completion requests.
type SamplingParams struct {
	Temperature   float64 `json:"temperature"`
	Seed          int     `json:"seed"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

// Default sampling values applied when a persona spec leaves them unset.
const (
	DefaultTemperature   = 0.5
	DefaultRepeatPenalty = 1.1
)

// RoundSeed converts a supplied float seed to the integer the completion
// APIs accept, rounding to the nearest integer.
func RoundSeed(seed float64) int {
	return int(math.Round(seed))
}

// RandomSeed returns a fresh rounded seed.
func RandomSeed() int {
	return RoundSeed(rand.Float64()) // #nosec G404 - sampling seed, not a secret
}

// CompletionRequest is the providers' input contract.
type CompletionRequest struct {
	ID          string       `json:"id"`
	Model       string       `json:"model"`
	Messages    Conversation `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
	Seed        int          `json:"seed"`
}

// CompletionResponse is one text completion returned by a provider.
type CompletionResponse struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	ProviderName string    `json:"provider_name"`
	Model        string    `json:"model"`
	Content      string    `json:"content"`
	TokensUsed   int       `json:"tokens_used"`
	FinishReason string    `json:"finish_reason"`
	CreatedAt    time.Time `json:"created_at"`
}
