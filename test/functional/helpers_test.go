//go:build functional

// Package functional provides functional tests for the item REST API.
package functional

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nnizic/unipu-ds/internal/auth"
	"github.com/nnizic/unipu-ds/internal/config"
	"github.com/nnizic/unipu-ds/internal/model"
	"github.com/nnizic/unipu-ds/internal/server"
	"github.com/nnizic/unipu-ds/internal/service"
	"github.com/nnizic/unipu-ds/internal/store/storetest"
)

// Environment variable names for test configuration.
const (
	EnvTestServerHost    = "TEST_SERVER_HOST"
	EnvTestTimeout       = "TEST_TIMEOUT"
	EnvTestMetricsEnable = "TEST_METRICS_ENABLED"
)

// Default test configuration values.
const (
	DefaultTestHost        = "127.0.0.1"
	DefaultTestTimeout     = 30 * time.Second
	DefaultRequestTimeout  = 5 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
	DefaultMetricsEnabled  = false
)

// TestConfig holds test configuration loaded from environment.
type TestConfig struct {
	Host           string
	Timeout        time.Duration
	MetricsEnabled bool
}

// LoadTestConfig loads test configuration from environment variables.
func LoadTestConfig() *TestConfig {
	cfg := &TestConfig{
		Host:           DefaultTestHost,
		Timeout:        DefaultTestTimeout,
		MetricsEnabled: DefaultMetricsEnabled,
	}

	if host := os.Getenv(EnvTestServerHost); host != "" {
		cfg.Host = host
	}

	if timeoutStr := os.Getenv(EnvTestTimeout); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	if metricsStr := os.Getenv(EnvTestMetricsEnable); metricsStr != "" {
		if enabled, err := strconv.ParseBool(metricsStr); err == nil {
			cfg.MetricsEnabled = enabled
		}
	}

	return cfg
}

// TestServer wraps the server for testing purposes.
type TestServer struct {
	Server  *server.Server
	Store   *storetest.MemoryStore
	BaseURL string
	Port    int
	timeout time.Duration
	t       *testing.T
	mu      sync.Mutex
	started bool
}

// ServerOption customizes the configuration of a TestServer.
type ServerOption func(cfg *config.Config)

// WithListLimit caps the number of items returned by list.
func WithListLimit(limit int64) ServerOption {
	return func(cfg *config.Config) { cfg.ListLimit = limit }
}

// WithAPIKeys enables API key authentication.
func WithAPIKeys(keys string) ServerOption {
	return func(cfg *config.Config) {
		cfg.AuthMode = string(auth.MethodAPIKey)
		cfg.APIKeys = keys
	}
}

// WithBasicUsers enables HTTP Basic authentication.
func WithBasicUsers(users string) ServerOption {
	return func(cfg *config.Config) {
		cfg.AuthMode = string(auth.MethodBasic)
		cfg.BasicAuthUsers = users
	}
}

// NewTestServer creates a new test server instance backed by an in-memory store.
func NewTestServer(t *testing.T, opts ...ServerOption) *TestServer {
	t.Helper()

	testCfg := LoadTestConfig()

	// Find an available port
	listener, err := net.Listen("tcp", fmt.Sprintf("%s:0", testCfg.Host))
	if err != nil {
		t.Fatalf("Failed to find available port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	cfg := &config.Config{
		ServerPort:         port,
		LogLevel:           "error",
		ShutdownTimeout:    DefaultShutdownTimeout,
		MetricsEnabled:     testCfg.MetricsEnabled,
		CORSAllowedOrigins: []string{config.DefaultCORSAllowedOrigin},
		ListLimit:          config.DefaultListLimit,
		AuthMode:           config.DefaultAuthMode,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	authenticator, err := auth.New(cfg.AuthMode, cfg.BasicAuthUsers, cfg.APIKeys)
	if err != nil {
		t.Fatalf("Failed to create authenticator: %v", err)
	}

	logger := zap.NewNop()
	itemStore := storetest.NewMemoryStore()
	items := service.NewItemService(itemStore, cfg.ListLimit, logger)

	return &TestServer{
		Server:  server.New(cfg, logger, items, authenticator),
		Store:   itemStore,
		BaseURL: fmt.Sprintf("http://%s:%d", testCfg.Host, port),
		Port:    port,
		timeout: testCfg.Timeout,
		t:       t,
	}
}

// Start starts the test server and registers its shutdown as test cleanup.
func (ts *TestServer) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return
	}

	go func() {
		if err := ts.Server.Start(); err != nil {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	ts.waitForReady()
	ts.started = true
	ts.t.Cleanup(ts.Stop)
}

// waitForReady waits for the server to be ready to accept connections.
func (ts *TestServer) waitForReady() {
	ctx, cancel := context.WithTimeout(context.Background(), ts.timeout)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ts.t.Fatalf("Server did not become ready within timeout")
		case <-ticker.C:
			resp, err := http.Get(ts.BaseURL + "/health")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
		}
	}
}

// Stop stops the test server.
func (ts *TestServer) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := ts.Server.Shutdown(ctx); err != nil {
		ts.t.Logf("Server shutdown error: %v", err)
	}

	ts.started = false
}

// HTTPClient provides a configured HTTP client for tests.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// NewHTTPClient creates a new HTTP client for testing.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: DefaultRequestTimeout},
		baseURL: baseURL,
		headers: make(map[string]string),
	}
}

// WithHeader returns a copy of the client that sends header on every request.
func (c *HTTPClient) WithHeader(key, value string) *HTTPClient {
	clone := &HTTPClient{
		client:  c.client,
		baseURL: c.baseURL,
		headers: make(map[string]string, len(c.headers)+1),
	}
	for k, v := range c.headers {
		clone.headers[k] = v
	}
	clone.headers[key] = value
	return clone
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do executes an HTTP request. Body may be a string, []byte or any JSON-encodable value.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var bodyReader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		bodyReader = bytes.NewBufferString(v)
	case []byte:
		bodyReader = bytes.NewBuffer(v)
	default:
		jsonBody, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

// MustDo executes a request and fails the test on transport errors.
func (c *HTTPClient) MustDo(t *testing.T, method, path string, body any) *Response {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
	defer cancel()

	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// CreateItem posts a new item and returns the decoded result.
func (c *HTTPClient) CreateItem(t *testing.T, name, description string) model.Item {
	t.Helper()

	resp := c.MustDo(t, http.MethodPost, "/items/", map[string]string{
		"name":        name,
		"description": description,
	})
	AssertStatusCode(t, resp, http.StatusCreated)
	return DecodeJSON[model.Item](t, resp)
}

// DecodeJSON decodes the response body into T.
func DecodeJSON[T any](t *testing.T, resp *Response) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", string(resp.Body), err)
	}
	return v
}

// AssertStatusCode asserts the response status code.
func AssertStatusCode(t *testing.T, resp *Response, expected int) {
	t.Helper()

	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// AssertHeader asserts a response header value.
func AssertHeader(t *testing.T, resp *Response, header, expected string) {
	t.Helper()

	if actual := resp.Headers.Get(header); actual != expected {
		t.Errorf("Expected header %s=%q, got %q", header, expected, actual)
	}
}

// LogTestStart logs the start of a test case.
func LogTestStart(t *testing.T, testID, description string) {
	t.Helper()
	t.Logf("=== START %s: %s", testID, description)
}

// LogTestEnd logs the end of a test case.
func LogTestEnd(t *testing.T, testID string) {
	t.Helper()
	t.Logf("=== END %s", testID)
}
