package integration

import (
	"net/http"
	"testing"
)

// TestSignupAndLogin registers a user and logs in by username and by email.
func TestSignupAndLogin(t *testing.T) {
	skipIfNotRunning(t)

	name := uniqueName("reader")
	email := name + "@test.example.com"

	status, body := httpPost(t, "/api/auth/signup", map[string]any{
		"username": name,
		"email":    email,
		"password": "secret123",
	})
	requireStatus(t, status, http.StatusCreated, body)
	if extractString(t, body, "username") != name || extractString(t, body, "email") != email {
		t.Fatalf("unexpected signup body %v", body)
	}

	for _, identifier := range []string{name, email} {
		status, body := httpPost(t, "/api/auth/login", map[string]any{
			"loginIdentifier": identifier,
			"password":        "secret123",
		})
		requireStatus(t, status, http.StatusOK, body)
		if extractString(t, body, "token") == "" {
			t.Fatalf("expected token for %s", identifier)
		}
	}
}

// TestSignupDuplicate verifies that a reused username is rejected with 400.
func TestSignupDuplicate(t *testing.T) {
	skipIfNotRunning(t)

	name := uniqueName("dup")
	req := map[string]any{"username": name, "email": name + "@test.example.com", "password": "secret123"}
	status, body := httpPost(t, "/api/auth/signup", req)
	requireStatus(t, status, http.StatusCreated, body)

	req["email"] = "other-" + name + "@test.example.com"
	status, body = httpPost(t, "/api/auth/signup", req)
	requireStatus(t, status, http.StatusBadRequest, body)
	if code := extractString(t, body, "error.code"); code != "DUPLICATE_USER" {
		t.Fatalf("expected DUPLICATE_USER, got %s", code)
	}
}

// TestLoginFailuresMatch verifies that an unknown user and a wrong password
// produce the same response.
func TestLoginFailuresMatch(t *testing.T) {
	skipIfNotRunning(t)

	name := uniqueName("login")
	status, body := httpPost(t, "/api/auth/signup", map[string]any{
		"username": name, "email": name + "@test.example.com", "password": "secret123",
	})
	requireStatus(t, status, http.StatusCreated, body)

	wrongStatus, wrongBody := httpPost(t, "/api/auth/login", map[string]any{"loginIdentifier": name, "password": "nope-nope"})
	unknownStatus, unknownBody := httpPost(t, "/api/auth/login", map[string]any{"loginIdentifier": uniqueName("ghost"), "password": "secret123"})

	requireStatus(t, wrongStatus, http.StatusBadRequest, wrongBody)
	requireStatus(t, unknownStatus, http.StatusBadRequest, unknownBody)
	if extractString(t, wrongBody, "error.message") != extractString(t, unknownBody, "error.message") {
		t.Fatalf("login failures differ: %v vs %v", wrongBody, unknownBody)
	}
}

// TestGuardedRoutesRequireToken verifies 401 without a valid bearer token.
func TestGuardedRoutesRequireToken(t *testing.T) {
	skipIfNotRunning(t)

	status, body := httpGetWithAuth(t, "/api/reviews/myreviews", "not-a-token")
	requireStatus(t, status, http.StatusUnauthorized, body)

	status, body = httpPost(t, "/api/books", map[string]any{"title": "T", "author": "A", "genre": "G"})
	requireStatus(t, status, http.StatusUnauthorized, body)
}
