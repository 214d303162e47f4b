package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func TestResolveClaudeModelID(t *testing.T) {
	r := NewRegistry("claude-3-opus-20240229")

	assert.Equal(t, "claude-sonnet-4-20250514", r.ResolveClaudeModelID("claude-sonnet-4-20250514"))
	assert.Equal(t, "claude-3-opus-20240229", r.ResolveClaudeModelID("gpt-4"))
	assert.Equal(t, "claude-3-opus-20240229", r.ResolveClaudeModelID(""))
	assert.Equal(t, "claude-3-opus-20240229", r.ResolveClaudeModelID("pollinations-openai"))
}

func TestResolveClaudeModelIDIsIdempotent(t *testing.T) {
	r := NewRegistry("")
	for _, id := range []string{"", "nope", "claude-2.1", "claude-opus-4-5-20251101", "pollinations-llama"} {
		once := r.ResolveClaudeModelID(id)
		assert.Equal(t, once, r.ResolveClaudeModelID(once), id)
	}
}

func TestInvalidDefaultFallsBack(t *testing.T) {
	r := NewRegistry("claude-9-imaginary")
	assert.Equal(t, FallbackClaudeModelID, r.DefaultClaudeModelID())
	assert.Equal(t, FallbackClaudeModelID, r.ResolveClaudeModelID("unknown"))
}

func TestListMap(t *testing.T) {
	r := NewRegistry("")
	m := r.ListMap()
	assert.Empty(t, m["openai"])
	assert.Len(t, m["anthropic"], 14)
	assert.Len(t, m["pollinations"], 4)

	m["anthropic"][0].ModelName = "changed"
	first, ok := r.Find("claude-2.1")
	require.True(t, ok)
	assert.Equal(t, "Claude 2", first.ModelName)
}

func TestMaxOutputTokens(t *testing.T) {
	r := NewRegistry("")
	assert.Equal(t, 4096, r.MaxOutputTokens("claude-3-haiku-20240307"))
	assert.Equal(t, 64000, r.MaxOutputTokens("claude-sonnet-4-5-20250929"))
	assert.Equal(t, DefaultMaxOutputTokens, r.MaxOutputTokens("unknown"))
}

func TestHostedModels(t *testing.T) {
	r := NewRegistry("")
	assert.Empty(t, r.HostedModels(&types.Profile{}, map[string]bool{}))
	assert.Len(t, r.HostedModels(&types.Profile{AnthropicAPIKey: "sk"}, nil), 14)
	assert.Len(t, r.HostedModels(nil, map[string]bool{"anthropic": true}), 14)
}

func TestPollinationsHostedID(t *testing.T) {
	r := NewRegistry("")
	assert.Equal(t, "openai-large", r.PollinationsHostedID("pollinations-openai-large"))
	assert.Equal(t, "llama", r.PollinationsHostedID("pollinations-llama"))
	assert.Equal(t, "openai", r.PollinationsHostedID("claude-2.1"))
	assert.Equal(t, "openai", r.PollinationsHostedID(""))
}
