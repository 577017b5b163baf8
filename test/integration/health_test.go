package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := doRequest(t, "GET", "/healthz", "", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestReadinessEndpoint(t *testing.T) {
	resp := doRequest(t, "GET", "/readyz", "", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHealthIgnoresInvalidToken(t *testing.T) {
	// Operational endpoints never consult the gate.
	resp := doRequest(t, "GET", "/healthz", "garbage", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with a bad token, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Generate an auth failure so the counter has a sample.
	doRequest(t, "GET", "/v1/leads", "", "").Body.Close()

	resp := doRequest(t, "GET", "/metrics", "", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	for _, name := range []string{"citygate_requests_total", "citygate_auth_failures_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
