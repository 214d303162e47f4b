package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func collect(t *testing.T, p services.ChatProvider, req services.ChatRequest, profile *types.Profile) (string, bool, error) {
	t.Helper()
	var sb strings.Builder
	started := false
	err := p.StreamChat(context.Background(), req, profile, func() { started = true }, func(s string) error {
		sb.WriteString(s)
		return nil
	})
	return sb.String(), started, err
}

func providerError(t *testing.T, err error) *services.ProviderError {
	t.Helper()
	var perr *services.ProviderError
	require.True(t, errors.As(err, &perr), "want ProviderError, got %v", err)
	return perr
}

var userTurn = []types.Message{{Role: "user", Content: "Give me a logline"}}

func TestMissingKeyIsReportedBeforeAnyCall(t *testing.T) {
	reg := llm.NewRegistry("")
	log := logger.NewNop()
	cases := []struct {
		provider services.ChatProvider
		display  string
	}{
		{services.NewAnthropicProvider(log, reg, "", "http://127.0.0.1:1/"), "Anthropic"},
		{services.NewOpenAIProvider(log, reg, "", "http://127.0.0.1:1"), "OpenAI"},
		{services.NewMistralProvider(log, reg, "", "http://127.0.0.1:1", nil), "Mistral"},
	}
	for _, tc := range cases {
		t.Run(tc.provider.Name(), func(t *testing.T) {
			_, started, err := collect(t, tc.provider, services.ChatRequest{Messages: userTurn}, nil)
			perr := providerError(t, err)
			assert.False(t, started)
			assert.Equal(t, http.StatusInternalServerError, perr.Status)
			assert.Equal(t, tc.display+" API Key not found. Please set it in your profile settings.", perr.Message)
		})
	}
}

func TestAnthropicRejectedKeyMapsTo401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	p := services.NewAnthropicProvider(logger.NewNop(), llm.NewRegistry(""), "", srv.URL+"/")
	profile := &types.Profile{AnthropicAPIKey: "sk-ant-wrong"}
	_, started, err := collect(t, p, services.ChatRequest{Messages: userTurn}, profile)
	perr := providerError(t, err)
	assert.False(t, started)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.Equal(t, "Anthropic API Key is incorrect. Please fix it in your profile settings.", perr.Message)
}

func TestAnthropicOverloadedKeepsProviderMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	p := services.NewAnthropicProvider(logger.NewNop(), llm.NewRegistry(""), "", srv.URL+"/")
	profile := &types.Profile{AnthropicAPIKey: "sk-ant-ok"}
	_, started, err := collect(t, p, services.ChatRequest{Messages: userTurn}, profile)
	perr := providerError(t, err)
	assert.False(t, started)
	assert.Equal(t, 529, perr.Status)
	assert.Equal(t, "Overloaded", perr.Message)
	assert.NotContains(t, perr.Message, srv.URL)
}

func TestOpenAIStreamsDeltas(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Fade \"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"in.\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := services.NewOpenAIProvider(logger.NewNop(), llm.NewRegistry(""), "env-key", srv.URL)
	out, started, err := collect(t, p, services.ChatRequest{
		ChatSettings: types.ChatSettings{Model: "gpt-4o", Temperature: 0.2},
		Messages:     userTurn,
	}, &types.Profile{OpenaiAPIKey: "profile-key"})
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, "Fade in.", out)
	assert.Equal(t, "Bearer env-key", gotAuth, "the server key wins over the profile key")
	assert.Equal(t, "gpt-4o", gotBody["model"])
	assert.Equal(t, true, gotBody["stream"])
}

func TestOpenAIUpstreamErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached"}}`))
	}))
	defer srv.Close()

	p := services.NewOpenAIProvider(logger.NewNop(), llm.NewRegistry(""), "k", srv.URL)
	_, _, err := collect(t, p, services.ChatRequest{Messages: userTurn}, nil)
	perr := providerError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, perr.Status)
	assert.Equal(t, "Rate limit reached", perr.Message)
}

func TestMistralRetrievalFailureStopsTheRequest(t *testing.T) {
	var upstreamCalls int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&upstreamCalls, 1)
	}))
	defer upstream.Close()
	retrieval := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"index offline"}`))
	}))
	defer retrieval.Close()

	log := logger.NewNop()
	p := services.NewMistralProvider(log, llm.NewRegistry(""), "k", upstream.URL, services.NewRetrievalClient(log, retrieval.URL))
	_, started, err := collect(t, p, services.ChatRequest{Messages: userTurn}, nil)
	perr := providerError(t, err)
	assert.False(t, started)
	assert.Equal(t, http.StatusBadGateway, perr.Status)
	assert.Contains(t, perr.Message, "index offline")
	assert.EqualValues(t, 0, atomic.LoadInt32(&upstreamCalls))
}

func TestMistralSendsRetrievedData(t *testing.T) {
	var retrievalBody map[string]interface{}
	retrieval := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&retrievalBody)
		_, _ = w.Write([]byte(`{"results":[{"content":"INT. DINER - NIGHT"},{"content":"A waitress pours coffee."}]}`))
	}))
	defer retrieval.Close()

	var sent struct {
		Model       string          `json:"model"`
		Messages    []types.Message `json:"messages"`
		Temperature *float64        `json:"temperature"`
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\ndata: [DONE]\n\n")
	}))
	defer upstream.Close()

	log := logger.NewNop()
	p := services.NewMistralProvider(log, llm.NewRegistry(""), "k", upstream.URL, services.NewRetrievalClient(log, retrieval.URL))
	out, _, err := collect(t, p, services.ChatRequest{Messages: userTurn}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.Equal(t, "Give me a logline", retrievalBody["userInput"])
	assert.Equal(t, "openai", retrievalBody["embeddingsProvider"])
	assert.EqualValues(t, 5, retrievalBody["sourceCount"])
	assert.Equal(t, []interface{}{}, retrievalBody["fileIds"])

	assert.Equal(t, services.MistralModelID, sent.Model)
	assert.Nil(t, sent.Temperature)
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, "system", sent.Messages[1].Role)
	assert.Equal(t, "Retrieved data: INT. DINER - NIGHT\nA waitress pours coffee.", sent.Messages[1].Content)
}

func TestRetrievalWithoutEndpointFails(t *testing.T) {
	_, err := services.NewRetrievalClient(logger.NewNop(), "").Retrieve(context.Background(), "hi")
	perr := providerError(t, err)
	assert.Equal(t, http.StatusInternalServerError, perr.Status)
}

func TestPollinationsRequiresUserMessage(t *testing.T) {
	p := services.NewPollinationsProvider(logger.NewNop(), llm.NewRegistry(""), "http://127.0.0.1:1")
	_, _, err := collect(t, p, services.ChatRequest{Messages: []types.Message{{Role: "system", Content: "x"}}}, nil)
	perr := providerError(t, err)
	assert.Equal(t, http.StatusInternalServerError, perr.Status)
	assert.Equal(t, "No user message found", perr.Message)
}

func TestPollinationsRelaysBody(t *testing.T) {
	var gotPath, gotModel, gotStream string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotModel = r.URL.Query().Get("model")
		gotStream = r.URL.Query().Get("stream")
		_, _ = w.Write([]byte("streamed text"))
	}))
	defer srv.Close()

	p := services.NewPollinationsProvider(logger.NewNop(), llm.NewRegistry(""), srv.URL)
	out, started, err := collect(t, p, services.ChatRequest{
		ChatSettings: types.ChatSettings{Model: "not-a-pollinations-model"},
		Messages:     []types.Message{{Role: "user", Content: "first"}, {Role: "assistant", Content: "a"}, {Role: "user", Content: "second turn"}},
	}, nil)
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, "streamed text", out)
	assert.Equal(t, "/second turn", gotPath)
	assert.Equal(t, "openai", gotModel)
	assert.Equal(t, "true", gotStream)
}

func TestAugmentWithRetrievalDoesNotTouchInput(t *testing.T) {
	in := []types.Message{{Role: "user", Content: "q"}}
	out := services.AugmentWithRetrieval(in, []string{"a", "b"})
	require.Len(t, in, 1)
	require.Len(t, out, 2)
	assert.Equal(t, types.Message{Role: "system", Content: "Retrieved data: a\nb"}, out[1])
}
