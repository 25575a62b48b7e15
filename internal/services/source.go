package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/lens/internal/models"
	"github.com/desertthunder/lens/internal/shared"
)

const (
	maxPlaylistBytes = 64 << 20
	m3uHeader        = "#EXTM3U"
	defaultUserAgent = "LENS-Scanner/1.0"
)

// Source describes where a playlist is read from.
type Source struct {
	Location    string
	Type        models.SourceType
	Credentials models.Credentials
}

// Fetcher retrieves the raw text of a playlist source.
type Fetcher interface {
	FetchText(ctx context.Context, src Source) (string, error)
}

// SourceFetcher reads playlists from HTTP(S) URLs, local files, inline text and Xtream Codes panels.
type SourceFetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

var _ Fetcher = (*SourceFetcher)(nil)

// NewSourceFetcher creates a fetcher; a nil client gets a default one bounded by timeout.
func NewSourceFetcher(client *http.Client, userAgent string, timeout time.Duration) *SourceFetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &SourceFetcher{httpClient: client, userAgent: userAgent, timeout: timeout}
}

// FetchText returns the playlist text for src. Every failure is a [shared.ParseError].
func (f *SourceFetcher) FetchText(ctx context.Context, src Source) (string, error) {
	loc := strings.TrimSpace(src.Location)
	if loc == "" {
		return "", shared.NewParseError("", fmt.Errorf("%w: empty location", shared.ErrInvalidInput))
	}

	switch src.Type {
	case models.SourceM3U, "":
		return f.fetchM3U(ctx, src.Location)
	case models.SourceXtream:
		u, err := xtreamURL(loc, src.Credentials)
		if err != nil {
			return "", shared.NewParseError(loc, err)
		}
		return f.fetchURL(ctx, u)
	default:
		return "", shared.NewParseError(loc, fmt.Errorf("%w: %s", shared.ErrUnsupportedSource, src.Type))
	}
}

func (f *SourceFetcher) fetchM3U(ctx context.Context, location string) (string, error) {
	loc := strings.TrimSpace(location)
	if strings.Contains(loc, "\n") || strings.HasPrefix(loc, m3uHeader) {
		return checkText("inline", []byte(location))
	}

	u, err := url.Parse(loc)
	if err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		switch u.Scheme {
		case "http", "https":
			return f.fetchURL(ctx, loc)
		case "file":
			return readFile(u.Path)
		default:
			return "", shared.NewParseError(loc, fmt.Errorf("%w: scheme %q", shared.ErrUnsupportedSource, u.Scheme))
		}
	}

	if _, err := os.Stat(loc); err == nil {
		return readFile(loc)
	}
	return "", shared.NewParseError(loc, fmt.Errorf("%w: not a url, file or playlist text", shared.ErrInvalidInput))
}

func (f *SourceFetcher) fetchURL(ctx context.Context, rawURL string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", shared.NewParseError(Redact(rawURL), fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", shared.ErrTimeout, err)
		}
		return "", shared.NewParseError(Redact(rawURL), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", shared.NewParseError(Redact(rawURL), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlaylistBytes))
	if err != nil {
		return "", shared.NewParseError(Redact(rawURL), fmt.Errorf("failed to read body: %w", err))
	}
	return checkText(Redact(rawURL), body)
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", shared.NewParseError(path, fmt.Errorf("failed to read file: %w", err))
	}
	return checkText(path, b)
}

func checkText(source string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", shared.NewParseError(source, errors.New("playlist is not valid UTF-8"))
	}
	return string(b), nil
}

// xtreamURL builds the m3u_plus export URL of an Xtream Codes panel.
func xtreamURL(server string, creds models.Credentials) (string, error) {
	if creds.Username == "" || creds.Password == "" {
		return "", fmt.Errorf("%w: xtream username and password required", shared.ErrMissingCredentials)
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: xtream server %q", shared.ErrInvalidInput, server)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/get.php"
	q := url.Values{}
	q.Set("username", creds.Username)
	q.Set("password", creds.Password)
	q.Set("type", "m3u_plus")
	q.Set("output", "ts")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Redact strips credentials from a URL before it is used in errors or logs.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.User = nil
	q := u.Query()
	for _, k := range []string{"password", "apikey", "api_key"} {
		if q.Has(k) {
			q.Set(k, "xxxxx")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
