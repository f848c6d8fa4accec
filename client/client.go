package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 60 * time.Second

// Client performs operations against a gallerd server.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
			APIKey:   cfg.APIKey,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Health checks server availability.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseServerError(resp.StatusCode, body)
	}
	return nil
}

// Login exchanges the owner's credentials for the server's API key.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	req, err := c.newRequest(ctx, http.MethodPost, "/login", payload)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseServerError(resp.StatusCode, body)
	}

	var loginResp struct {
		Success bool   `json:"success"`
		APIKey  string `json:"apiKey"`
	}
	if err := json.Unmarshal(body, &loginResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if !loginResp.Success {
		return "", ErrLoginFailed
	}
	return loginResp.APIKey, nil
}

// List fetches all gallery images. URLs in the result are freshly signed
// by the server on every call.
func (c *Client) List(ctx context.Context) ([]ImageData, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/images", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseServerError(resp.StatusCode, body)
	}

	var serverResp serverListResponse
	if err := json.Unmarshal(body, &serverResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	images := make([]ImageData, len(serverResp.Images))
	for i, rec := range serverResp.Images {
		images[i] = rec.toImageData()
	}
	return images, nil
}

// uploadEntry mirrors one element of the POST /images images array.
type uploadEntry struct {
	Base64    string `json:"base64"`
	Date      string `json:"date"`
	MonthYear string `json:"monthYear"`
}

// Upload reads local JPEG files and uploads them as a single batch.
// Non-JPEG and unreadable files are filtered out client-side and
// reported in the outcome's Rejected map; entries the server declines
// come back in Skipped.
func (c *Client) Upload(ctx context.Context, paths []string) (*UploadOutcome, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	outcome := &UploadOutcome{Rejected: map[string]string{}}
	var entries []uploadEntry

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		entry, err := buildEntry(path)
		if err != nil {
			outcome.Rejected[path] = err.Error()
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return outcome, nil
	}

	payload := struct {
		Images []uploadEntry `json:"images"`
	}{Images: entries}

	req, err := c.newRequest(ctx, http.MethodPost, "/images", payload)
	if err != nil {
		return outcome, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return outcome, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return outcome, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return outcome, parseServerError(resp.StatusCode, body)
	}

	var serverResp serverUploadResponse
	if err := json.Unmarshal(body, &serverResp); err != nil {
		return outcome, fmt.Errorf("parse response: %w", err)
	}

	outcome.Uploaded = make([]ImageData, len(serverResp.Images))
	for i, rec := range serverResp.Images {
		outcome.Uploaded[i] = rec.toImageData()
	}
	outcome.Skipped = serverResp.Skipped
	return outcome, nil
}

// buildEntry reads one local file into a data-URL upload entry.
func buildEntry(path string) (uploadEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" {
		return uploadEntry{}, ErrNotAJPEG
	}

	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided input
	if err != nil {
		return uploadEntry{}, fmt.Errorf("read file: %w", err)
	}

	// JPEG magic: FF D8 FF
	if len(data) < 3 || data[0] != 0xFF || data[1] != 0xD8 || data[2] != 0xFF {
		return uploadEntry{}, ErrNotAJPEG
	}

	info, err := os.Stat(path)
	date := time.Now()
	if err == nil {
		date = info.ModTime()
	}
	date = date.UTC()

	return uploadEntry{
		Base64:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
		Date:      date.Format(time.RFC3339),
		MonthYear: date.Format("2006-01"),
	}, nil
}

// Delete removes a single image by id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyImageID
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/images/"+id, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	return parseServerError(resp.StatusCode, body)
}

// newRequest builds an authenticated JSON request against the API.
func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	return req, nil
}

// parseServerError extracts the error message from a server response.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Body: string(body)}

	var serverErr serverErrorResponse
	if err := json.Unmarshal(body, &serverErr); err == nil && serverErr.Message != "" {
		apiErr.Message = serverErr.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested image does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrForbidden is returned when the request is not permitted (403).
	ErrForbidden = &APIError{StatusCode: http.StatusForbidden}
)
