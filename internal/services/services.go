// package services defines interface Catalog for searching a music catalog over HTTP
//
// Spotify
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/spotfill/internal/shared"
)

// Catalog defines a music catalog the pipeline can resolve tracks against.
type Catalog interface {
	// Authenticate exchanges the configured credentials for a bearer token.
	// Returns an error wrapping [shared.ErrAuthFailed] if the exchange fails.
	Authenticate(ctx context.Context) error

	// Search runs one track search. An empty result is not an error.
	//
	// Rate limiting is reported as [*RateLimitError], other non-success statuses as [*StatusError].
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// SearchRequest scopes a search by artist and, optionally, track title.
type SearchRequest struct {
	Artist string
	Title  string // Empty for an artist-only search
}

// Query renders the catalog field-filter query string.
func (r SearchRequest) Query() string {
	if r.Title == "" {
		return fmt.Sprintf(`artist:"%s"`, r.Artist)
	}
	return fmt.Sprintf(`artist:"%s" track:%s`, r.Artist, r.Title)
}

// ArtistOnly returns the broader fallback request for the same artist.
func (r SearchRequest) ArtistOnly() SearchRequest {
	return SearchRequest{Artist: r.Artist}
}

// SearchResult holds matches in catalog-default order.
type SearchResult struct {
	Query  string
	Tracks []SpotifyTrack
}

// First returns the first match, or nil when there are none.
func (r *SearchResult) First() *SpotifyTrack {
	if r == nil || len(r.Tracks) == 0 {
		return nil
	}
	return &r.Tracks[0]
}

// RateLimitError reports an HTTP 429 along with how long to wait before retrying.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return shared.ErrRateLimited }

// StatusError reports a non-success, non-429 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }
