package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

const anthropicDisplayName = "Anthropic"

// AnthropicProvider talks to Claude through the official SDK. Retries are
// off; a failed call surfaces immediately.
type AnthropicProvider struct {
	log      *logger.Logger
	registry *llm.Registry
	envKey   string
	baseURL  string
}

func NewAnthropicProvider(log *logger.Logger, registry *llm.Registry, envKey, baseURL string) *AnthropicProvider {
	return &AnthropicProvider{
		log:      log.With("service", "AnthropicProvider"),
		registry: registry,
		envKey:   envKey,
		baseURL:  baseURL,
	}
}

func (ap *AnthropicProvider) Name() string { return "anthropic" }

func (ap *AnthropicProvider) client(profile *types.Profile) (anthropic.Client, error) {
	key, err := resolveKey(ap.envKey, profile, "anthropic", anthropicDisplayName)
	if err != nil {
		return anthropic.Client{}, err
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if ap.baseURL != "" {
		opts = append(opts, option.WithBaseURL(ap.baseURL))
	}
	return anthropic.NewClient(opts...), nil
}

func (ap *AnthropicProvider) params(modelID, system string, messages []types.Message, temperature float64) anthropic.MessageNewParams {
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			converted = append(converted, anthropic.NewAssistantMessage(block))
		} else {
			converted = append(converted, anthropic.NewUserMessage(block))
		}
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   int64(ap.registry.MaxOutputTokens(modelID)),
		Messages:    converted,
		Temperature: anthropic.Float(temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func (ap *AnthropicProvider) StreamChat(ctx context.Context, req ChatRequest, profile *types.Profile, onStart func(), onDelta func(string) error) error {
	client, err := ap.client(profile)
	if err != nil {
		return err
	}
	modelID := ap.registry.ResolveClaudeModelID(req.ChatSettings.Model)
	system, messages := splitSystem(req.Messages, req.ChatSettings.Prompt)
	stream := client.Messages.NewStreaming(ctx, ap.params(modelID, system, messages, req.ChatSettings.Temperature))
	defer stream.Close()

	// The first event tells whether the request was accepted.
	if !stream.Next() {
		if err := stream.Err(); err != nil {
			return ap.mapError(err)
		}
		onStart()
		return nil
	}
	onStart()
	for {
		event := stream.Current()
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
				if err := onDelta(text.Text); err != nil {
					return err
				}
			}
		}
		if !stream.Next() {
			break
		}
	}
	if err := stream.Err(); err != nil {
		ap.log.Warn("Anthropic stream ended with error", "model", modelID, "error", err)
		return ap.mapError(err)
	}
	return nil
}

// Complete runs one non-streaming request and returns the first text block.
func (ap *AnthropicProvider) Complete(ctx context.Context, profile *types.Profile, modelID, system, input string, temperature float64) (string, error) {
	client, err := ap.client(profile)
	if err != nil {
		return "", err
	}
	msg, err := client.Messages.New(ctx, ap.params(modelID, system, []types.Message{{Role: "user", Content: input}}, temperature))
	if err != nil {
		return "", ap.mapError(err)
	}
	if len(msg.Content) == 0 {
		return "", nil
	}
	return msg.Content[0].Text, nil
}

func (ap *AnthropicProvider) mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return upstreamError(anthropicDisplayName, apiErr.StatusCode, anthropicErrorMessage(apiErr), err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return upstreamError(anthropicDisplayName, http.StatusInternalServerError, err.Error(), err)
}

// anthropicErrorMessage is the provider's own error.message. The SDK's
// Error() text carries the method and upstream URL, so it is only used when
// no body could be parsed.
func anthropicErrorMessage(apiErr *anthropic.Error) string {
	body := strings.TrimSpace(apiErr.RawJSON())
	if body == "" {
		text := apiErr.Error()
		if i := strings.Index(text, "{"); i >= 0 {
			body = text[i:]
		}
	}
	if body != "" {
		if msg := errorMessageFromBody([]byte(body)); msg != "" && !strings.HasPrefix(msg, "{") {
			return msg
		}
	}
	return apiErr.Error()
}
