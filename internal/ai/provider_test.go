// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer creates an httptest.Server that responds with the given status
// code and body bytes. The caller must call Close on the returned server.
func newTestServer(t *testing.T, statusCode int, body []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		w.Write(body)
	}))
}

// successBody builds a JSON body matching the OpenAI chat completions
// response format with a single choice containing the given text.
func successBody(text string) []byte {
	resp := openAIResponse{
		Choices: []openAIChoice{
			{Message: openAIMessage{Role: "assistant", Content: text}},
		},
	}
	b, _ := json.Marshal(resp)
	return b
}

func TestOpenAIGenerate_Success(t *testing.T) {
	want := "A painted valley at dusk"
	srv := newTestServer(t, http.StatusOK, successBody(want))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
	})

	got, err := p.Generate(context.Background(), "You write image prompts.", "One prompt please")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("Generate: got %q, want %q", got, want)
	}
}

func TestOpenAIGenerate_VerifiesRequestHeaders(t *testing.T) {
	// Capture request headers and body sent by the provider.
	var capturedHeaders http.Header
	var capturedBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		capturedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(successBody("ok"))
	}))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{
		APIKey:  "sk-test-12345",
		Model:   "gpt-4o-mini",
		BaseURL: srv.URL,
	})

	_, err := p.Generate(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Generate: unexpected error: %v", err)
	}

	authHeader := capturedHeaders.Get("Authorization")
	if authHeader != "Bearer sk-test-12345" {
		t.Errorf("Authorization header: got %q, want %q", authHeader, "Bearer sk-test-12345")
	}

	ct := capturedHeaders.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}

	var reqBody openAIRequest
	if err := json.Unmarshal(capturedBody, &reqBody); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if reqBody.Model != "gpt-4o-mini" {
		t.Errorf("model: got %q, want %q", reqBody.Model, "gpt-4o-mini")
	}
	if len(reqBody.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(reqBody.Messages))
	}
	if reqBody.Messages[0].Role != "system" || reqBody.Messages[1].Role != "user" {
		t.Errorf("message roles: got %q/%q", reqBody.Messages[0].Role, reqBody.Messages[1].Role)
	}
	if reqBody.ResponseFormat != nil {
		t.Error("plain Generate must not set response_format")
	}
}

func TestOpenAIGenerateStructured_SendsSchema(t *testing.T) {
	var capturedBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(successBody(`{"loved":["misty forest"]}`))
	}))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL})

	schema := Schema{
		Name: "history_summary",
		Raw:  json.RawMessage(`{"type":"object","properties":{"loved":{"type":"array","items":{"type":"string"}}},"required":["loved"],"additionalProperties":false}`),
	}
	got, err := p.GenerateStructured(context.Background(), "", "Summarize", schema)
	if err != nil {
		t.Fatalf("GenerateStructured: %v", err)
	}
	if got != `{"loved":["misty forest"]}` {
		t.Errorf("GenerateStructured: got %q", got)
	}

	var reqBody openAIRequest
	if err := json.Unmarshal(capturedBody, &reqBody); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if reqBody.ResponseFormat == nil {
		t.Fatal("response_format not set")
	}
	if reqBody.ResponseFormat.Type != "json_schema" {
		t.Errorf("response_format type: got %q, want %q", reqBody.ResponseFormat.Type, "json_schema")
	}
	if reqBody.ResponseFormat.JSONSchema.Name != "history_summary" {
		t.Errorf("schema name: got %q", reqBody.ResponseFormat.JSONSchema.Name)
	}
	if !reqBody.ResponseFormat.JSONSchema.Strict {
		t.Error("schema should be strict")
	}
	// An empty system prompt is omitted from the message list.
	if len(reqBody.Messages) != 1 || reqBody.Messages[0].Role != "user" {
		t.Errorf("messages: got %+v, want single user message", reqBody.Messages)
	}
}

func TestOpenAIGenerate_APIError(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, []byte(`{"error":"rate limited"}`))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})

	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate: expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should mention status code: %v", err)
	}
}

func TestOpenAIGenerate_NoChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, []byte(`{"choices":[]}`))
	defer srv.Close()

	p := newOpenAI(ProviderConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})

	_, err := p.Generate(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("Generate: expected error when no choices returned")
	}
}

func TestMistralGenerate_Success(t *testing.T) {
	want := "ok from mistral"
	srv := newTestServer(t, http.StatusOK, successBody(want))
	defer srv.Close()

	p := newMistral(ProviderConfig{APIKey: "k", Model: "mistral-small", BaseURL: srv.URL})

	got, err := p.Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != want {
		t.Errorf("Generate: got %q, want %q", got, want)
	}
	if p.Name() != "mistral" {
		t.Errorf("Name: got %q, want %q", p.Name(), "mistral")
	}
}

func TestRegistrySkipsProvidersWithoutKeys(t *testing.T) {
	r := NewRegistry("openai", map[string]ProviderConfig{
		"openai":  {APIKey: "key"},
		"mistral": {APIKey: ""},
	})

	if !contains(r.Available(), "openai") {
		t.Error("openai should be available")
	}
	if contains(r.Available(), "mistral") {
		t.Error("mistral without key should be skipped")
	}
}

func TestRegistryActiveMissing(t *testing.T) {
	r := NewRegistry("openai", map[string]ProviderConfig{})

	if _, err := r.Active(); err == nil {
		t.Error("Active: expected error when active provider is unconfigured")
	}
	if _, err := r.Generate(context.Background(), "s", "u"); err == nil {
		t.Error("Generate: expected error when active provider is unconfigured")
	}
}

func TestRegistrySetActive(t *testing.T) {
	r := NewRegistry("openai", map[string]ProviderConfig{
		"openai":  {APIKey: "a"},
		"mistral": {APIKey: "b"},
	})

	if err := r.SetActive("mistral"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if r.ActiveName() != "mistral" {
		t.Errorf("ActiveName: got %q, want %q", r.ActiveName(), "mistral")
	}

	if err := r.SetActive("gemini"); err == nil {
		t.Error("SetActive: expected error for unknown provider")
	}
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
