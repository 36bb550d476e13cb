package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestApp() *webApp {
	return &webApp{root: &rootOptions{logger: slog.New(slog.DiscardHandler)}}
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebApp_Form(t *testing.T) {
	h := newTestApp().routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="company"`, `name="website"`, `name="api_key"`, "Generate EVP"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected form to contain %q", want)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestWebApp_GenerateRequiresInputs(t *testing.T) {
	rec := postForm(t, newTestApp().routes(), "/generate", url.Values{"company": {"Acme"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "company name and its website") {
		t.Errorf("expected input error message")
	}
}

func TestWebApp_GenerateMissingCredential(t *testing.T) {
	f := newFakeProvider(t)
	setProviderEnv(t, f, "")

	rec := postForm(t, newTestApp().routes(), "/generate", url.Values{
		"company": {"Acme"},
		"website": {f.URL + "/site"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "An API key is required") {
		t.Errorf("expected credential message")
	}
	if f.completions.Load() != 0 {
		t.Errorf("expected no completion requests")
	}
}

func TestWebApp_Generate(t *testing.T) {
	f := newFakeProvider(t)
	setProviderEnv(t, f, "")

	rec := postForm(t, newTestApp().routes(), "/generate", url.Values{
		"company": {"Acme"},
		"website": {f.URL + "/site"},
		"api_key": {"sk-form"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h3>Great Company</h3>") {
		t.Errorf("expected rendered report")
	}
	if n := strings.Count(body, "<details>"); n != 2 {
		t.Errorf("expected 2 revealable sources, got %d", n)
	}
	if strings.Contains(body, "sk-form") {
		t.Errorf("API key must not be echoed back")
	}
}

func TestWebApp_Check(t *testing.T) {
	f := newFakeProvider(t)
	setProviderEnv(t, f, "sk-test")

	rec := postForm(t, newTestApp().routes(), "/check", url.Values{"model": {"gpt-4o-mini"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Credentials verified with model gpt-4o-mini") {
		t.Errorf("expected verification notice")
	}

	f.authStatus.Store(http.StatusUnauthorized)
	rec = postForm(t, newTestApp().routes(), "/check", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for rejected credentials, got %d", rec.Code)
	}
}
