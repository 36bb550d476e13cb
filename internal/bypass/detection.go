package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of a fetched page the detectors inspect.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector examines a response to determine if a bot protection mechanism
// blocked or challenged the request.
type Detector func(r Response) (detected bool, source string)

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the response through the detectors and reports the first
// protection vendor that matched.
func Analyze(r Response, detectors []Detector) (bool, string) {
	for _, d := range detectors {
		if detected, source := d(r); detected {
			return true, source
		}
	}
	return false, ""
}

func blocked(r Response) bool {
	return r.StatusCode == http.StatusForbidden || r.StatusCode == http.StatusServiceUnavailable
}

func serverContains(r Response, s string) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Server")), s)
}

func bodyContainsAny(r Response, needles ...string) bool {
	for _, n := range needles {
		if bytes.Contains(r.Body, []byte(n)) {
			return true
		}
	}
	return false
}

// detectCloudflare also catches the "Just a moment" interstitial, which can be
// served with a 200.
func detectCloudflare(r Response) (bool, string) {
	if bodyContainsAny(r, "cf-browser-verification", "cf-turnstile", "/cdn-cgi/challenge-platform/") &&
		bodyContainsAny(r, "Just a moment...", "Attention Required! | Cloudflare", "cf-chl") {
		return true, "Cloudflare"
	}
	if blocked(r) {
		if serverContains(r, "cloudflare") {
			return true, "Cloudflare"
		}
		if bodyContainsAny(r, "cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare") {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(r Response) (bool, string) {
	if r.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if serverContains(r, "akamai") {
		return true, "Akamai"
	}
	// generic "Reference #" block page
	if bodyContainsAny(r, "Reference #") && bodyContainsAny(r, "Access Denied") {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(r Response) (bool, string) {
	if r.Header.Get("X-DataDome") != "" && bodyContainsAny(r, "geo.captcha-delivery.com") {
		return true, "DataDome"
	}
	if r.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if serverContains(r, "datadome") ||
		r.Header.Get("X-DataDome") != "" ||
		r.Header.Get("X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bodyContainsAny(r, "geo.captcha-delivery.com", "datadome") {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(r Response) (bool, string) {
	if r.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if r.Header.Get("X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bodyContainsAny(r, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return true, "PerimeterX"
	}
	return false, ""
}
