package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MForte-AI/character-dev-1225/internal/types"
)

// ChatRequest is the body of POST /api/chat/:provider.
type ChatRequest struct {
	ChatSettings types.ChatSettings `json:"chatSettings"`
	Messages     []types.Message    `json:"messages"`
}

// ChatProvider relays one conversation to an upstream model.
//
// onStart is called once, right before the first chunk is handed to
// onDelta. An error returned before onStart ran can still be reported to
// the client as JSON; after that the response is already streaming.
type ChatProvider interface {
	Name() string
	StreamChat(ctx context.Context, req ChatRequest, profile *types.Profile, onStart func(), onDelta func(string) error) error
}

// resolveKey prefers the server's key and falls back to the caller's
// profile.
func resolveKey(envKey string, profile *types.Profile, provider, display string) (string, error) {
	if k := strings.TrimSpace(envKey); k != "" {
		return k, nil
	}
	if k := strings.TrimSpace(profile.KeyFor(provider)); k != "" {
		return k, nil
	}
	return "", &ProviderError{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s API Key not found. Please set it in your profile settings.", display),
	}
}

// upstreamError maps an upstream failure to what the caller sees: 401
// becomes the incorrect-key message, anything else keeps its status and
// message.
func upstreamError(display string, status int, message string, err error) *ProviderError {
	if status == http.StatusUnauthorized {
		return &ProviderError{
			Status:  http.StatusUnauthorized,
			Message: fmt.Sprintf("%s API Key is incorrect. Please fix it in your profile settings.", display),
			Err:     err,
		}
	}
	if strings.Contains(strings.ToLower(message), "api key not found") {
		return &ProviderError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("%s API Key not found. Please set it in your profile settings.", display),
			Err:     err,
		}
	}
	if status < 400 {
		status = http.StatusInternalServerError
	}
	if strings.TrimSpace(message) == "" {
		message = "An unexpected error occurred"
	}
	return &ProviderError{Status: status, Message: message, Err: err}
}

// splitSystem pulls system-role messages out of the conversation. Their
// contents are joined into one system prompt; fallback is used when there
// are none.
func splitSystem(messages []types.Message, fallback string) (string, []types.Message) {
	var system []string
	rest := make([]types.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == "system" {
			if strings.TrimSpace(m.Content) != "" {
				system = append(system, m.Content)
			}
			continue
		}
		rest = append(rest, m)
	}
	if len(system) == 0 {
		return fallback, rest
	}
	return strings.Join(system, "\n\n"), rest
}

func lastUserMessage(messages []types.Message) (types.Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i], true
		}
	}
	return types.Message{}, false
}
