package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "lumenai/pkg/errors"
)

func TestChatTopics(t *testing.T) {
	a := NewChatAssistant()

	tests := []struct {
		message string
		topic   string
	}{
		{"Hello there", "greeting"},
		{"hi, what services do you offer?", "greeting"},
		{"How much does an LLM project cost?", "pricing"},
		{"What services do you offer?", "services"},
		{"Show me case studies", "case_studies"},
		{"Any upcoming webinars?", "events"},
		{"Are you hiring?", "careers"},
		{"How can I contact you?", "contact"},
		{"thanks!", "thanks"},
		{"What's the weather like?", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			reply, err := a.Reply(tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.topic, reply.Topic)
			assert.NotEmpty(t, reply.Reply)
			assert.NotNil(t, reply.Suggestions)
		})
	}
}

func TestChatRepliesAreIndependent(t *testing.T) {
	a := NewChatAssistant()
	first, err := a.Reply("zzz")
	require.NoError(t, err)
	first.Suggestions[0] = "mutated"

	second, err := a.Reply("zzz")
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", second.Suggestions[0])
}

func TestChatRejectsBadMessages(t *testing.T) {
	a := NewChatAssistant()

	for _, msg := range []string{"", "   ", strings.Repeat("a", MaxChatMessageLength+1)} {
		_, err := a.Reply(msg)
		appErr := requireCode(t, err, apperrors.ErrCodeValidation)
		assert.Equal(t, "message", appErr.Details[0].Field)
	}

	_, err := a.Reply(strings.Repeat("é", MaxChatMessageLength))
	assert.NoError(t, err)
}
