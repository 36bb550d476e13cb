package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/FranksOps/evp/internal/config"
)

// fakeProvider serves an OpenAI-compatible API, DuckDuckGo lite markup and a
// small company site from one httptest server.
type fakeProvider struct {
	*httptest.Server
	completions atomic.Int32
	authStatus  atomic.Int32
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	f := &fakeProvider{}
	f.authStatus.Store(http.StatusOK)

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status := int(f.authStatus.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"gpt-4o-mini","object":"model","created":1,"owned_by":"openai"}`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.completions.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"### Great Company\n- Acme builds widgets."}}]}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		var b strings.Builder
		b.WriteString("<html><body><table>")
		if r.PostForm.Get("q") == "Acme press release" {
			fmt.Fprintf(&b, `<tr><td><a href="%s/press" class='result-link'>Press</a></td></tr>`, f.URL)
		}
		b.WriteString("</table></body></html>")
		_, _ = w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/site", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><h1>Acme builds widgets.</h1></body></html>")
	})
	mux.HandleFunc("/press", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Acme opens a new plant.</p></body></html>")
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// setProviderEnv points every resolution at the fake provider.
func setProviderEnv(t *testing.T, f *fakeProvider, apiKey string) {
	t.Helper()
	t.Setenv(config.EnvAPIKey, apiKey)
	t.Setenv(config.EnvBaseURL, f.URL+"/v1/")
	t.Setenv(config.EnvModel, "")
	t.Setenv("EVP_SEARCH_ENDPOINT", f.URL+"/search")
	t.Setenv("EVP_FETCH_TIMEOUT", "5s")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
