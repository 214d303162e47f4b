package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

const (
	OpenAIBaseURL  = "https://api.openai.com/v1"
	MistralBaseURL = "https://api.mistral.ai/v1"
	MistralModelID = "mistral:7b-instruct-v0.3-q4_K_M"

	maxErrorBodyBytes = 64 * 1024
)

type completionRequest struct {
	Model       string          `json:"model"`
	Messages    []types.Message `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stream      bool            `json:"stream"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAICompatProvider streams chat completions from any endpoint speaking
// the OpenAI wire format. With a retriever set it augments the
// conversation before the call.
type OpenAICompatProvider struct {
	log        *logger.Logger
	registry   *llm.Registry
	name       string
	display    string
	baseURL    string
	envKey     string
	fixedModel string
	retriever  RetrievalClient
	httpClient *http.Client
}

type OpenAICompatConfig struct {
	Name       string
	Display    string
	BaseURL    string
	EnvKey     string
	FixedModel string
	Retriever  RetrievalClient
	HTTPClient *http.Client
}

func NewOpenAICompatProvider(log *logger.Logger, registry *llm.Registry, cfg OpenAICompatConfig) *OpenAICompatProvider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &OpenAICompatProvider{
		log:        log.With("service", cfg.Display+"Provider"),
		registry:   registry,
		name:       cfg.Name,
		display:    cfg.Display,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		envKey:     cfg.EnvKey,
		fixedModel: cfg.FixedModel,
		retriever:  cfg.Retriever,
		httpClient: httpClient,
	}
}

// NewOpenAIProvider and NewMistralProvider are the two configured variants.
func NewOpenAIProvider(log *logger.Logger, registry *llm.Registry, envKey, baseURL string) *OpenAICompatProvider {
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	return NewOpenAICompatProvider(log, registry, OpenAICompatConfig{
		Name: "openai", Display: "OpenAI", BaseURL: baseURL, EnvKey: envKey,
	})
}

func NewMistralProvider(log *logger.Logger, registry *llm.Registry, envKey, baseURL string, retriever RetrievalClient) *OpenAICompatProvider {
	if baseURL == "" {
		baseURL = MistralBaseURL
	}
	return NewOpenAICompatProvider(log, registry, OpenAICompatConfig{
		Name: "mistral", Display: "Mistral", BaseURL: baseURL, EnvKey: envKey,
		FixedModel: MistralModelID, Retriever: retriever,
	})
}

func (op *OpenAICompatProvider) Name() string { return op.name }

func (op *OpenAICompatProvider) StreamChat(ctx context.Context, req ChatRequest, profile *types.Profile, onStart func(), onDelta func(string) error) error {
	//1) Key
	key, err := resolveKey(op.envKey, profile, op.name, op.display)
	if err != nil {
		return err
	}

	//2) Retrieval
	messages := req.Messages
	if op.retriever != nil {
		last := ""
		if len(messages) > 0 {
			last = messages[len(messages)-1].Content
		}
		contents, rErr := op.retriever.Retrieve(ctx, last)
		if rErr != nil {
			return rErr
		}
		messages = AugmentWithRetrieval(messages, contents)
	}

	//3) Request
	model := req.ChatSettings.Model
	if op.fixedModel != "" {
		model = op.fixedModel
	}
	body := completionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: op.registry.MaxOutputTokens(req.ChatSettings.Model),
		Stream:    true,
	}
	if op.fixedModel == "" {
		t := req.ChatSettings.Temperature
		body.Temperature = &t
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op.name, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, op.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op.name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+key)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if op.name == "openai" && profile != nil && profile.OpenaiOrganizationID != "" {
		httpReq.Header.Set("OpenAI-Organization", profile.OpenaiOrganizationID)
	}

	resp, err := op.httpClient.Do(httpReq)
	if err != nil {
		return upstreamError(op.display, http.StatusInternalServerError, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		op.log.Warn("Upstream responded with non-2xx", "statusCode", resp.StatusCode, "body", string(raw))
		return upstreamError(op.display, resp.StatusCode, errorMessageFromBody(raw), fmt.Errorf("%s returned %d", op.name, resp.StatusCode))
	}

	//4) Relay
	onStart()
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		var chunk completionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil && chunk.Error.Message != "" {
			return fmt.Errorf("%s stream error: %s", op.name, chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s stream: %w", op.name, err)
	}
	return nil
}

// errorMessageFromBody pulls "error.message" or "message" out of an
// upstream error body, falling back to the raw text.
func errorMessageFromBody(raw []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
