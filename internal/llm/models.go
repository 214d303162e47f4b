package llm

import "github.com/MForte-AI/character-dev-1225/internal/types"

const (
	anthropicPlatformLink    = "https://docs.anthropic.com/claude/reference/getting-started-with-the-api"
	pollinationsPlatformLink = "https://pollinations.ai"

	// FallbackClaudeModelID is used when neither the requested id nor the
	// configured default names a known Claude model.
	FallbackClaudeModelID = "claude-3-5-sonnet-20240620"

	DefaultMaxOutputTokens = 4096
)

func perMillion(in, out float64) *types.LLMPricing {
	return &types.LLMPricing{Currency: "USD", Unit: "1M tokens", InputCost: in, OutputCost: out}
}

func claude(id, name string, image bool, pricing *types.LLMPricing, maxOut int) types.LLM {
	return types.LLM{
		ModelID:         id,
		ModelName:       name,
		Provider:        "anthropic",
		HostedID:        id,
		PlatformLink:    anthropicPlatformLink,
		ImageInput:      image,
		Pricing:         pricing,
		MaxOutputTokens: maxOut,
	}
}

func pollinations(id, name, hosted string, image bool) types.LLM {
	return types.LLM{
		ModelID:         id,
		ModelName:       name,
		Provider:        "pollinations",
		HostedID:        hosted,
		PlatformLink:    pollinationsPlatformLink,
		ImageInput:      image,
		Pricing:         perMillion(0, 0),
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

var anthropicModels = []types.LLM{
	claude("claude-2.1", "Claude 2", false, perMillion(8, 24), 4096),
	claude("claude-instant-1.2", "Claude Instant", false, perMillion(0.8, 2.4), 4096),
	claude("claude-3-haiku-20240307", "Claude 3 Haiku", true, perMillion(0.25, 1.25), 4096),
	claude("claude-3-sonnet-20240229", "Claude 3 Sonnet", true, perMillion(3, 15), 4096),
	claude("claude-3-opus-20240229", "Claude 3 Opus", true, perMillion(15, 75), 4096),
	claude("claude-3-5-sonnet-20240620", "Claude 3.5 Sonnet", true, perMillion(3, 15), 8192),
	claude("claude-3-5-haiku-20241022", "Claude 3.5 Haiku", true, nil, 8192),
	claude("claude-3-7-sonnet-20250219", "Claude 3.7 Sonnet", true, nil, 8192),
	claude("claude-sonnet-4-20250514", "Claude 4 Sonnet", true, nil, 64000),
	claude("claude-opus-4-20250514", "Claude 4 Opus", true, nil, 32000),
	claude("claude-opus-4-1-20250805", "Claude 4.1 Opus", true, nil, 32000),
	claude("claude-sonnet-4-5-20250929", "Claude 4.5 Sonnet", true, nil, 64000),
	claude("claude-haiku-4-5-20251001", "Claude 4.5 Haiku", true, nil, 64000),
	claude("claude-opus-4-5-20251101", "Claude 4.5 Opus", true, nil, 64000),
}

var pollinationsModels = []types.LLM{
	pollinations("pollinations-openai", "Pollinations OpenAI", "openai", true),
	pollinations("pollinations-openai-large", "Pollinations OpenAI Large", "openai-large", true),
	pollinations("pollinations-mistral", "Pollinations Mistral", "mistral", true),
	pollinations("pollinations-llama", "Pollinations Llama 3.3", "llama", false),
}
