// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spotfill/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	defaultMarket     = "PL"
	defaultLimit      = 1
	defaultRetryAfter = time.Second
	maxErrorBody      = 512
)

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// PrimaryArtist returns the first credited artist, or the zero value when the track has none.
func (t SpotifyTrack) PrimaryArtist() SpotifyArtist {
	if len(t.Artists) == 0 {
		return SpotifyArtist{}
	}
	return t.Artists[0]
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a simplified Spotify album.
type SpotifyAlbum struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	ReleaseDate          string `json:"release_date"`
	ReleaseDatePrecision string `json:"release_date_precision"`
	URI                  string `json:"uri"`
}

type searchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	ClientID          string
	ClientSecret      string
	TokenURL          string        // Defaults to the Spotify accounts token endpoint
	APIURL            string        // Defaults to the Spotify Web API base URL
	Market            string        // ISO 3166-1 alpha-2 market code, defaults to PL
	Limit             int           // Results per search, defaults to 1
	DefaultRetryAfter time.Duration // Wait used when a 429 carries no Retry-After header
	HTTPClient        *http.Client  // Base client for token exchange and API calls
}

// SpotifyService implements the Catalog interface for Spotify Web API search.
// Uses [clientcredentials] for app-only authentication; tokens are reused until expiry and then refreshed.
type SpotifyService struct {
	config            *clientcredentials.Config
	baseURL           string
	market            string
	limit             int
	defaultRetryAfter time.Duration
	httpClient        *http.Client
	client            *http.Client
	token             *oauth2.Token
}

// NewSpotifyService creates a new Spotify service with the given client credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.APIURL == "" {
		opts.APIURL = spotifyBaseURL
	}
	if opts.Market == "" {
		opts.Market = defaultMarket
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.DefaultRetryAfter <= 0 {
		opts.DefaultRetryAfter = defaultRetryAfter
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &SpotifyService{
		config: &clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		baseURL:           strings.TrimRight(opts.APIURL, "/"),
		market:            opts.Market,
		limit:             opts.Limit,
		defaultRetryAfter: opts.DefaultRetryAfter,
		httpClient:        opts.HTTPClient,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate performs the client-credentials grant. There is no retry.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	source := s.config.TokenSource(context.WithoutCancel(ctx))
	token, err := source.Token()
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	s.token = token
	s.client = oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source))
	return nil
}

// Token returns the current bearer token, nil before [SpotifyService.Authenticate].
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

// Search queries /search for tracks.
func (s *SpotifyService) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	if strings.TrimSpace(req.Artist) == "" {
		return nil, fmt.Errorf("%w: artist is required", shared.ErrInvalidInput)
	}

	query := req.Query()
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(s.limit))
	params.Set("market", s.market)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), s.defaultRetryAfter)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
	}

	return &SearchResult{Query: query, Tracks: payload.Tracks.Items}, nil
}

// parseRetryAfter reads a Retry-After header given in whole seconds.
func parseRetryAfter(v string, fallback time.Duration) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
