package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

const RetrievalSourceCount = 5

// RetrievalClient asks the external retrieval endpoint for snippets that
// match the user's input.
type RetrievalClient interface {
	Retrieve(ctx context.Context, userInput string) ([]string, error)
}

type retrievalRequest struct {
	UserInput          string   `json:"userInput"`
	FileIDs            []string `json:"fileIds"`
	EmbeddingsProvider string   `json:"embeddingsProvider"`
	SourceCount        int      `json:"sourceCount"`
}

type retrievalResponse struct {
	Results []struct {
		Content string `json:"content"`
	} `json:"results"`
}

type retrievalClient struct {
	log        *logger.Logger
	url        string
	httpClient *http.Client
}

func NewRetrievalClient(log *logger.Logger, url string) RetrievalClient {
	return &retrievalClient{
		log:        log.With("service", "RetrievalClient"),
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Retrieve makes exactly one call. Every failure, including an unset
// endpoint, is returned to the caller.
func (rc *retrievalClient) Retrieve(ctx context.Context, userInput string) ([]string, error) {
	if rc.url == "" {
		return nil, &ProviderError{Status: http.StatusInternalServerError, Message: "Retrieval endpoint is not configured"}
	}
	payload, err := json.Marshal(retrievalRequest{
		UserInput:          userInput,
		FileIDs:            []string{},
		EmbeddingsProvider: DefaultEmbeddingsProvider,
		SourceCount:        RetrievalSourceCount,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal retrieval request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build retrieval request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := rc.httpClient.Do(req)
	if err != nil {
		rc.log.Warn("Retrieval call failed", "error", err)
		return nil, &ProviderError{Status: http.StatusInternalServerError, Message: "Retrieval request failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read retrieval response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		rc.log.Warn("Retrieval responded with non-2xx", "statusCode", resp.StatusCode)
		return nil, &ProviderError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Retrieval request failed: %s", errorMessageFromBody(raw)),
		}
	}
	var parsed retrievalResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Status: http.StatusInternalServerError, Message: "Retrieval returned invalid JSON", Err: err}
	}
	contents := make([]string, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		contents = append(contents, r.Content)
	}
	return contents, nil
}

// AugmentWithRetrieval appends one system message carrying the snippets.
func AugmentWithRetrieval(messages []types.Message, contents []string) []types.Message {
	out := make([]types.Message, 0, len(messages)+1)
	out = append(out, messages...)
	return append(out, types.Message{
		Role:    "system",
		Content: "Retrieved data: " + strings.Join(contents, "\n"),
	})
}
