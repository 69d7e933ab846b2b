package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// apiURL returns the base URL of the API under test. BOOKREVIEW_API_URL
// overrides the local default.
func apiURL() string {
	if u := os.Getenv("BOOKREVIEW_API_URL"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return "http://localhost:5000"
}

// uniqueName generates a unique username to avoid test collisions.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s%d%d", prefix, time.Now().UnixNano(), rand.Intn(100000))
}

// skipIfNotRunning performs a quick liveness check against the API.
// If the API is unreachable, the test is skipped (not failed).
func skipIfNotRunning(t *testing.T) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(apiURL() + "/health/live")
	if err != nil {
		t.Skipf("API at %s not reachable: %v", apiURL(), err)
	}
	resp.Body.Close()
}

// httpGet performs an HTTP GET request and returns the status code and decoded JSON body.
func httpGet(t *testing.T, path string) (int, any) {
	t.Helper()
	return doJSONRequest(t, http.MethodGet, path, nil, "")
}

// httpGetWithAuth performs an HTTP GET request with a Bearer token.
func httpGetWithAuth(t *testing.T, path, token string) (int, any) {
	t.Helper()
	return doJSONRequest(t, http.MethodGet, path, nil, token)
}

// httpPost performs an HTTP POST request with a JSON body.
func httpPost(t *testing.T, path string, body any) (int, any) {
	t.Helper()
	return doJSONRequest(t, http.MethodPost, path, body, "")
}

// httpPostWithAuth performs an HTTP POST request with a JSON body and Bearer token.
func httpPostWithAuth(t *testing.T, path string, body any, token string) (int, any) {
	t.Helper()
	return doJSONRequest(t, http.MethodPost, path, body, token)
}

// httpDeleteWithAuth performs an HTTP DELETE request with a Bearer token.
func httpDeleteWithAuth(t *testing.T, path, token string) (int, any) {
	t.Helper()
	return doJSONRequest(t, http.MethodDelete, path, nil, token)
}

func doJSONRequest(t *testing.T, method, path string, body any, token string) (int, any) {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body failed: %v", err)
		}
		bodyReader = bytes.NewReader(jsonBytes)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(method, apiURL()+path, bodyReader)
	if err != nil {
		t.Fatalf("creating %s request for %s failed: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body failed: %v", err)
	}
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return resp.StatusCode, string(raw)
	}
	return resp.StatusCode, decoded
}

// requireStatus fails the test when the HTTP status code differs.
func requireStatus(t *testing.T, got, want int, body any) {
	t.Helper()
	if got != want {
		t.Fatalf("expected status %d, got %d (body: %v)", want, got, body)
	}
}

// extractField extracts a value from nested JSON objects using a
// dot-separated path such as "book.averageRating".
func extractField(data any, path string) any {
	current := data
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[part]
		if !ok {
			return nil
		}
	}
	return current
}

func extractString(t *testing.T, data any, path string) string {
	t.Helper()
	s, ok := extractField(data, path).(string)
	if !ok {
		t.Fatalf("expected string at path %q in %v", path, data)
	}
	return s
}

func extractFloat(t *testing.T, data any, path string) float64 {
	t.Helper()
	f, ok := extractField(data, path).(float64)
	if !ok {
		t.Fatalf("expected number at path %q in %v", path, data)
	}
	return f
}

// signup registers a fresh user and returns its token.
func signup(t *testing.T, prefix string) string {
	t.Helper()
	name := uniqueName(prefix)
	status, body := httpPost(t, "/api/auth/signup", map[string]any{
		"username": name,
		"email":    name + "@test.example.com",
		"password": "secret123",
	})
	requireStatus(t, status, http.StatusCreated, body)
	return extractString(t, body, "token")
}
