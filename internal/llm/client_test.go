package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/FranksOps/evp/internal/config"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionBody(content string) string {
	choices := `[]`
	if content != "" {
		b, _ := json.Marshal(content)
		choices = `[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + string(b) + `}}]`
	}
	return `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4o-mini","choices":` + choices + `}`
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(config.Settings{APIKey: "sk-test", BaseURL: baseURL, Model: "gpt-4o-mini"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("### Great Company\n- Solid.")))
	})

	c := newClient(t, ts.URL+"/v1/")
	out, err := c.Complete(context.Background(), Request{
		Model:       "gpt-4o-mini",
		System:      "sys",
		Prompt:      "user prompt",
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "### Great Company\n- Solid." {
		t.Errorf("unexpected output %q", out)
	}

	if got.Model != "gpt-4o-mini" || got.Temperature != 0.3 {
		t.Errorf("unexpected request parameters: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
	if got.Messages[0].Content != "sys" || got.Messages[1].Content != "user prompt" {
		t.Errorf("unexpected message contents: %+v", got.Messages)
	}
}

func TestClient_CompleteNoChoices(t *testing.T) {
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("")))
	})

	out, err := newClient(t, ts.URL+"/v1/").Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestClient_CompleteErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
	})

	_, err := newClient(t, ts.URL+"/v1/").Complete(context.Background(), Request{Model: "m", Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected exactly one request, got %d", calls.Load())
	}
}

func TestClient_Ping(t *testing.T) {
	ts := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v1/models/gpt-4o-mini" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}`))
	})

	c := newClient(t, ts.URL+"/v1/")
	if err := c.Ping(context.Background(), "gpt-4o-mini"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := c.Ping(context.Background(), "gpt-missing"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(config.Settings{Model: "m"}, 0)
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
