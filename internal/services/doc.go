// Package services defines the [Catalog] interface for music catalogs and implements it for Spotify.
//
// # Catalog Interface
//
// The pipeline only needs two things from a catalog: a credential exchange and a track search. Keeping the
// interface that small lets tests swap in scripted fakes.
//
// # Spotify Implementation
//
// [SpotifyService] uses the client-credentials grant from [clientcredentials]. The client id and secret are sent
// as a Basic authorization header to the token endpoint. The resulting token is wrapped in
// [oauth2.ReuseTokenSource], so long runs refresh the bearer token transparently.
//
// Searches use the field-filter syntax:
//
//	artist:"Artist Name" track:Title
//	artist:"Artist Name"
//
// # Error Handling
//
// Search errors are typed so callers can branch with [errors.As] or [errors.Is]:
//   - [*RateLimitError] : HTTP 429, carries the Retry-After wait (wraps [shared.ErrRateLimited])
//   - [*StatusError] : any other non-2xx status (wraps [shared.ErrAPIRequest])
//   - [shared.ErrAPIRequest] : transport or decode failures
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
package services
