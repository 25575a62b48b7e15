// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/lens/internal/models"
)

// MockProvider is a test double for [services.Provider].
//
// Search results are keyed by lower-cased title; SearchErr and DetailsErr, when set, are
// returned for every call (or only for the titles listed in FailTitles).
type MockProvider struct {
	ProviderName string
	Results      map[string][]models.Candidate
	Details      map[string]*models.Details
	SearchErr    error
	DetailsErr   error
	FailTitles   []string

	mu            sync.Mutex
	SearchCalls   int
	DetailsCalls  int
	SearchedTitle []string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProviderName: name,
		Results:      map[string][]models.Candidate{},
		Details:      map[string]*models.Details{},
	}
}

func (m *MockProvider) Name() string { return m.ProviderName }

func (m *MockProvider) SearchByTitle(ctx context.Context, title string, year int, kind models.ContentType) ([]models.Candidate, error) {
	m.mu.Lock()
	m.SearchCalls++
	m.SearchedTitle = append(m.SearchedTitle, title)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.SearchErr != nil && m.fails(title) {
		return nil, m.SearchErr
	}
	return m.Results[strings.ToLower(title)], nil
}

func (m *MockProvider) GetDetails(ctx context.Context, cand models.Candidate) (*models.Details, error) {
	m.mu.Lock()
	m.DetailsCalls++
	m.mu.Unlock()

	if m.DetailsErr != nil {
		return nil, m.DetailsErr
	}
	return m.Details[cand.ExternalID], nil
}

// Calls returns the number of search and details calls made so far.
func (m *MockProvider) Calls() (search, details int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SearchCalls, m.DetailsCalls
}

func (m *MockProvider) fails(title string) bool {
	if len(m.FailTitles) == 0 {
		return true
	}
	for _, t := range m.FailTitles {
		if strings.EqualFold(t, title) {
			return true
		}
	}
	return false
}

// MockStore records everything a scan persists. Set the *Err fields to simulate failures.
type MockStore struct {
	mu        sync.Mutex
	Movies    []*models.MovieRecord
	Series    []*models.SeriesRecord
	Channels  []*models.ChannelRecord
	Logs      map[string]*models.ScanLog
	Patches   []models.ScanLogPatch
	CreateErr error
	RecordErr error
	UpdateErr error
}

func NewMockStore() *MockStore {
	return &MockStore{Logs: map[string]*models.ScanLog{}}
}

func (m *MockStore) CreateScanLog(ctx context.Context, log *models.ScanLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Logs[log.ID] = log.Snapshot()
	return nil
}

func (m *MockStore) UpdateScanLog(ctx context.Context, id string, patch models.ScanLogPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	l, ok := m.Logs[id]
	if !ok {
		return errors.New("scan log not found")
	}
	l.Status = patch.Status
	l.CompletedAt = patch.CompletedAt
	l.TotalEntries = patch.TotalEntries
	l.ProcessedEntries = patch.ProcessedEntries
	l.Errors = append([]string(nil), patch.Errors...)
	m.Patches = append(m.Patches, patch)
	return nil
}

func (m *MockStore) CreateMovie(ctx context.Context, r *models.MovieRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Movies = append(m.Movies, r)
	return nil
}

func (m *MockStore) CreateSeries(ctx context.Context, r *models.SeriesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Series = append(m.Series, r)
	return nil
}

func (m *MockStore) CreateChannel(ctx context.Context, r *models.ChannelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Channels = append(m.Channels, r)
	return nil
}

// Log returns the stored copy of the scan log with id.
func (m *MockStore) Log(id string) *models.ScanLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Logs[id]
}

// Records returns the number of stored movies, series and channels.
func (m *MockStore) Records() (movies, series, channels int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Movies), len(m.Series), len(m.Channels)
}

// FailingCache implements [cache.Cache] and fails every operation.
type FailingCache struct{}

func (FailingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, errors.New("cache unavailable")
}

func (FailingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache unavailable")
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
