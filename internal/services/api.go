// JSON-over-HTTP plumbing shared by the metadata providers
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/lens/internal/shared"
)

const maxResponseBytes = 4 << 20

// apiClient performs GET requests against a provider's REST API and decodes JSON bodies.
type apiClient struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func newAPIClient(provider, baseURL string, client *http.Client) *apiClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &apiClient{
		provider:   provider,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// APIResponse is a raw provider response kept for error reporting.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// get performs a GET request to baseURL+path with query and returns the raw response.
func (a *apiClient) get(ctx context.Context, op, path string, query url.Values) (*APIResponse, error) {
	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, a.fail(op, 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return nil, a.fail(op, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, a.fail(op, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// getJSON performs a GET request and decodes a 2xx JSON body into result.
func (a *apiClient) getJSON(ctx context.Context, op, path string, query url.Values, result any) error {
	resp, err := a.get(ctx, op, path, query)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return a.fail(op, resp.StatusCode, fmt.Errorf("%w: %s", shared.ErrProvider, snippet(resp.Body)))
	}

	if err := json.Unmarshal(resp.Body, result); err != nil {
		return a.fail(op, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (a *apiClient) fail(op string, status int, err error) error {
	return &shared.ProviderError{Provider: a.provider, Op: op, StatusCode: status, Err: err}
}

const maxSnippetBytes = 200

// snippet trims a response body for error messages, cutting on a rune boundary.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxSnippetBytes {
		n := maxSnippetBytes
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n] + "..."
	}
	if s == "" {
		s = "empty body"
	}
	return s
}
