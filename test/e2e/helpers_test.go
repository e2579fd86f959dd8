//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// Environment variable names for E2E test configuration.
const (
	EnvServerURL = "E2E_SERVER_URL"
	EnvAPIKey    = "E2E_API_KEY"
	EnvBasicUser = "E2E_BASIC_USER"
	EnvBasicPass = "E2E_BASIC_PASS"
)

// Default configuration values.
const (
	DefaultServerURL = "http://localhost:8000"
	DefaultTimeout   = 15 * time.Second
)

// getEnvOrDefault returns the value of the environment variable
// identified by key, or defaultVal if the variable is not set.
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// e2eServerURL returns the base URL of the server under test.
func e2eServerURL() string {
	return getEnvOrDefault(EnvServerURL, DefaultServerURL)
}

// skipIfServerUnavailable skips the test unless the server reports ready.
func skipIfServerUnavailable(t *testing.T) {
	t.Helper()

	base := e2eServerURL()
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(base + "/ready")
	if err != nil {
		t.Skipf("Server unavailable at %s: %v", base, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Skipf("Server at %s not ready: status %d", base, resp.StatusCode)
	}
}

// newHTTPClient returns an *http.Client with a sensible timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// errorResponse represents an error response from the API.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// itemResponse represents an item returned by the API.
type itemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// itemListResponse represents the list endpoint payload.
type itemListResponse struct {
	Items []itemResponse `json:"items"`
}

// doRequest performs an HTTP request and returns status code and body.
// A non-nil payload is JSON-encoded.
func doRequest(
	t *testing.T,
	client *http.Client,
	method, url string,
	payload any,
	headers map[string]string,
) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	return resp.StatusCode, respBody
}

// buildAuthHeaders returns a header map populated with authentication
// credentials from environment variables, if available.
func buildAuthHeaders(t *testing.T) map[string]string {
	t.Helper()

	headers := map[string]string{
		"Content-Type": "application/json",
	}

	if apiKey := os.Getenv(EnvAPIKey); apiKey != "" {
		headers["X-API-Key"] = apiKey
		return headers
	}

	user := os.Getenv(EnvBasicUser)
	pass := os.Getenv(EnvBasicPass)
	if user != "" && pass != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		headers["Authorization"] = "Basic " + creds
	}

	return headers
}

// createItem creates an item and fails the test unless the server answers 201.
func createItem(
	t *testing.T,
	client *http.Client,
	base string,
	headers map[string]string,
	name, description string,
) itemResponse {
	t.Helper()

	status, body := doRequest(t, client, http.MethodPost, base+"/items/",
		map[string]string{"name": name, "description": description}, headers)
	if status != http.StatusCreated {
		t.Fatalf("Create: expected 201, got %d. Body: %s", status, body)
	}

	var item itemResponse
	if err := json.Unmarshal(body, &item); err != nil {
		t.Fatalf("Failed to parse created item: %v", err)
	}

	return item
}

// deleteItem removes an item, ignoring the outcome. Used for cleanup.
func deleteItem(t *testing.T, client *http.Client, base string, headers map[string]string, id string) {
	t.Helper()
	_, _ = doRequest(t, client, http.MethodDelete, base+"/items/"+id, nil, headers)
}
