package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p)

	p, err = ParseProvider(" Ollama ")
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, p)

	_, err = ParseProvider("openai")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNew_MissingKeys(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{Provider: ProviderGemini})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, Config{Provider: ProviderAnthropic})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ctx, Config{Provider: "mystery"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("File a complaint "), genai.Text("with the cyber cell.")}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
		},
	}
	assert.Equal(t, "File a complaint with the cyber cell.", responseText(resp))
}

func TestOllamaGenerator_Streams(t *testing.T) {
	var got struct {
		Model  string `json:"model"`
		Prompt string `json:"prompt"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		fmt.Fprintln(w, `{"model":"llama3","response":"Report to ","done":false}`)
		fmt.Fprintln(w, `{"model":"llama3","response":"the cyber cell.","done":true}`)
	}))
	defer srv.Close()

	gen, err := NewOllamaGenerator(srv.URL, "")
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "What now?")
	require.NoError(t, err)
	assert.Equal(t, "Report to the cyber cell.", text)
	assert.Equal(t, DefaultOllamaModel, got.Model)
	assert.Equal(t, "What now?", got.Prompt)
}

func TestOllamaGenerator_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintln(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	gen, err := NewOllamaGenerator(srv.URL, "missing")
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "x")
	assert.ErrorContains(t, err, "model not found")
}

func TestAnthropicGenerator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",`+
			`"content":[{"type":"text","text":"Lodge an FIR."}],"stop_reason":"end_turn",`+
			`"usage":{"input_tokens":5,"output_tokens":4}}`)
	}))
	defer srv.Close()

	gen, err := NewAnthropicGenerator("test-key", "", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "What now?")
	require.NoError(t, err)
	assert.Equal(t, "Lodge an FIR.", text)
}

func TestAnthropicGenerator_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`)
	}))
	defer srv.Close()

	gen, err := NewAnthropicGenerator("test-key", "nope", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "x")
	assert.Error(t, err)
}

func TestAnthropicGenerator_SingleAttempt(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`)
	}))
	defer srv.Close()

	gen, err := NewAnthropicGenerator("test-key", "", option.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())
}
