// Package llm holds the static list of selectable models and the rules for
// mapping a stored model id onto one the server can actually call.
package llm

import (
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type Registry struct {
	defaultClaude string
	byID          map[string]types.LLM
	byProvider    map[string][]types.LLM
}

// NewRegistry builds the registry. defaultOverride is the configured default
// Claude model id and may be empty or stale.
func NewRegistry(defaultOverride string) *Registry {
	r := &Registry{
		byID: make(map[string]types.LLM),
		byProvider: map[string][]types.LLM{
			"openai":       {},
			"anthropic":    anthropicModels,
			"pollinations": pollinationsModels,
		},
	}
	for _, list := range r.byProvider {
		for _, m := range list {
			r.byID[m.ModelID] = m
		}
	}
	r.defaultClaude = FallbackClaudeModelID
	if r.isClaude(defaultOverride) {
		r.defaultClaude = defaultOverride
	}
	return r
}

func (r *Registry) isClaude(id string) bool {
	m, ok := r.byID[id]
	return ok && m.Provider == "anthropic"
}

// DefaultClaudeModelID is the configured default when it is a known Claude
// model, otherwise the fallback.
func (r *Registry) DefaultClaudeModelID() string {
	return r.defaultClaude
}

// ResolveClaudeModelID returns id when it names a known Claude model and the
// default otherwise. Resolving a resolved id returns it unchanged.
func (r *Registry) ResolveClaudeModelID(id string) string {
	if r.isClaude(id) {
		return id
	}
	return r.defaultClaude
}

func (r *Registry) Find(id string) (types.LLM, bool) {
	m, ok := r.byID[id]
	return m, ok
}

func (r *Registry) ListMap() map[string][]types.LLM {
	out := make(map[string][]types.LLM, len(r.byProvider))
	for p, list := range r.byProvider {
		out[p] = append([]types.LLM{}, list...)
	}
	return out
}

func (r *Registry) MaxOutputTokens(id string) int {
	if m, ok := r.byID[id]; ok && m.MaxOutputTokens > 0 {
		return m.MaxOutputTokens
	}
	return DefaultMaxOutputTokens
}

// HostedModels lists the models of every provider the caller can reach,
// either through a key on their profile or one configured on the server.
func (r *Registry) HostedModels(profile *types.Profile, envKeyMap map[string]bool) []types.LLM {
	var out []types.LLM
	for _, provider := range []string{"openai", "anthropic"} {
		if envKeyMap[provider] || profile.KeyFor(provider) != "" {
			out = append(out, r.byProvider[provider]...)
		}
	}
	return out
}

// PollinationsHostedID maps a registry id to the model name Pollinations
// expects. Unknown ids use "openai".
func (r *Registry) PollinationsHostedID(id string) string {
	if m, ok := r.byID[id]; ok && m.Provider == "pollinations" {
		return m.HostedID
	}
	return "openai"
}
