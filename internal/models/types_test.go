package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompt(t *testing.T) {
	convo := Prompt("hello there")

	assert.Len(t, convo, 1)
	assert.Equal(t, RoleUser, convo[0].Role)
	assert.Equal(t, "hello there", convo[0].Content)
}

func TestConversationClone_Independent(t *testing.T) {
	orig := Conversation{SystemMessage("sys"), UserMessage("hi")}
	clone := orig.Clone()

	clone[1].Content = "changed"
	clone = append(clone, AssistantMessage("reply"))

	assert.Equal(t, "hi", orig[1].Content)
	assert.Len(t, orig, 2)
	assert.Len(t, clone, 3)
}

func TestRoundSeed(t *testing.T) {
	assert.Equal(t, 0, RoundSeed(0.4))
	assert.Equal(t, 1, RoundSeed(0.5))
	assert.Equal(t, 1, RoundSeed(0.9))
	assert.Equal(t, 42, RoundSeed(42.2))
	assert.Equal(t, -3, RoundSeed(-3.4))
}

func TestRandomSeed_Rounded(t *testing.T) {
	for i := 0; i < 100; i++ {
		seed := RandomSeed()
		assert.True(t, seed == 0 || seed == 1, "seed %d not a rounded unit float", seed)
	}
}

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "a"}, SystemMessage("a"))
	assert.Equal(t, Message{Role: RoleUser, Content: "b"}, UserMessage("b"))
	assert.Equal(t, Message{Role: RoleAssistant, Content: "c"}, AssistantMessage("c"))
}
