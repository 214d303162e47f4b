package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

const PollinationsBaseURL = "https://text.pollinations.ai"

// PollinationsProvider needs no key. It sends only the last user message
// and relays the response body as it arrives.
type PollinationsProvider struct {
	log        *logger.Logger
	registry   *llm.Registry
	baseURL    string
	httpClient *http.Client
}

func NewPollinationsProvider(log *logger.Logger, registry *llm.Registry, baseURL string) *PollinationsProvider {
	if baseURL == "" {
		baseURL = PollinationsBaseURL
	}
	return &PollinationsProvider{
		log:        log.With("service", "PollinationsProvider"),
		registry:   registry,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (pp *PollinationsProvider) Name() string { return "pollinations" }

func (pp *PollinationsProvider) StreamChat(ctx context.Context, req ChatRequest, profile *types.Profile, onStart func(), onDelta func(string) error) error {
	last, ok := lastUserMessage(req.Messages)
	if !ok {
		return &ProviderError{Status: http.StatusInternalServerError, Message: "No user message found"}
	}
	model := pp.registry.PollinationsHostedID(req.ChatSettings.Model)
	apiURL := fmt.Sprintf("%s/%s?model=%s&stream=true", pp.baseURL, url.PathEscape(last.Content), url.QueryEscape(model))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("build pollinations request: %w", err)
	}
	resp, err := pp.httpClient.Do(httpReq)
	if err != nil {
		return &ProviderError{Status: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &ProviderError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Pollinations API returned %d: %s", resp.StatusCode, string(raw)),
		}
	}

	onStart()
	buf := make([]byte, 4096)
	for {
		n, rErr := resp.Body.Read(buf)
		if n > 0 {
			if err := onDelta(string(buf[:n])); err != nil {
				return err
			}
		}
		if rErr == io.EOF {
			return nil
		}
		if rErr != nil {
			return fmt.Errorf("read pollinations stream: %w", rErr)
		}
	}
}
