package fingerprint

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in      string
		want    Profile
		wantErr bool
	}{
		{in: "", want: ProfileGo},
		{in: "go", want: ProfileGo},
		{in: "Chrome", want: ProfileChrome},
		{in: " firefox ", want: ProfileFirefox},
		{in: "safari", want: ProfileSafari},
		{in: "random", want: ProfileRandom},
		{in: "netscape", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProfile(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTransport_Profiles(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	for _, p := range []Profile{ProfileChrome, ProfileFirefox, ProfileSafari, ProfileGo, ProfileRandom} {
		t.Run(string(p), func(t *testing.T) {
			rt, err := Transport(p)
			if err != nil {
				t.Fatalf("unexpected error creating transport for %s: %v", p, err)
			}

			tr, ok := rt.(*http.Transport)
			if !ok {
				t.Fatalf("expected *http.Transport, got %T", rt)
			}
			if p == ProfileGo && tr.DialTLSContext != nil {
				t.Errorf("expected stdlib TLS for go profile")
			}
			if p != ProfileGo && tr.DialTLSContext == nil {
				t.Errorf("expected utls dialer for profile %s", p)
			}

			// Plain HTTP targets never reach the TLS dialer.
			resp, err := (&http.Client{Transport: rt}).Get(ts.URL)
			if err != nil {
				t.Fatalf("request failed for profile %s: %v", p, err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200 OK, got %d for profile %s", resp.StatusCode, p)
			}
		})
	}
}

func TestTransport_UnknownProfile(t *testing.T) {
	_, err := Transport(Profile("unknown_browser"))
	if err == nil {
		t.Fatal("expected error for unknown profile, got nil")
	}
	if err.Error() != `fingerprint: unknown profile "unknown_browser"` {
		t.Errorf("unexpected error message: %v", err)
	}
}
