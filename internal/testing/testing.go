// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/spotfill/internal/services"
)

// SearchReply is one scripted response of a [MockCatalog].
type SearchReply struct {
	Tracks []services.SpotifyTrack
	Err    error
}

// MockCatalog is a test double for [services.Catalog].
//
// Replies are keyed by the rendered query string and consumed in order. When a key's script runs out its last
// reply repeats. Unknown queries return no tracks.
type MockCatalog struct {
	AuthErr error

	mu      sync.Mutex
	replies map[string][]SearchReply
	queries []string
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{replies: make(map[string][]SearchReply)}
}

// On scripts the replies for req.
func (m *MockCatalog) On(req services.SearchRequest, replies ...SearchReply) *MockCatalog {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[req.Query()] = append(m.replies[req.Query()], replies...)
	return m
}

func (m *MockCatalog) Authenticate(ctx context.Context) error { return m.AuthErr }

func (m *MockCatalog) Search(ctx context.Context, req services.SearchRequest) (*services.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := req.Query()
	m.queries = append(m.queries, q)

	script := m.replies[q]
	if len(script) == 0 {
		return &services.SearchResult{Query: q}, nil
	}
	reply := script[0]
	if len(script) > 1 {
		m.replies[q] = script[1:]
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &services.SearchResult{Query: q, Tracks: reply.Tracks}, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// Queries returns every query received, in order.
func (m *MockCatalog) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Track builds a catalog track with one artist.
func Track(id, name, artistID, artistName, albumID, releaseDate string, popularity int) services.SpotifyTrack {
	return services.SpotifyTrack{
		ID:         id,
		Name:       name,
		Artists:    []services.SpotifyArtist{{ID: artistID, Name: artistName}},
		Album:      services.SpotifyAlbum{ID: albumID, ReleaseDate: releaseDate},
		Popularity: popularity,
	}
}

// FakeClock is a manual clock. Sleep advances time instantly and records the duration.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Sleeps returns every duration passed to Sleep.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
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
