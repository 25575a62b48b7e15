// Package services implements the external collaborators of a scan: metadata providers
// and playlist source fetching.
//
// # Provider Interface
//
// [Provider] is the contract shared by every metadata source. Two implementations exist:
//
//   - [TMDBService] : The Movie Database, authenticated with a v3 API key or a v4 read
//     access token served through an [oauth2.TokenSource]
//   - [OMDBService] : The Open Movie Database, authenticated with an API key
//
// SearchByTitle returns an empty slice, not an error, when nothing matches. Failures are
// reported as [shared.ProviderError] carrying the HTTP status when one was received.
//
// # Throttling
//
// [Throttled] wraps a provider with a token-bucket limiter, a per-call timeout and a
// bounded retry on rate-limit and 5xx responses.
//
// # Sources
//
// [SourceFetcher] obtains playlist text from an HTTP(S) URL, a local file, inline text or
// an Xtream Codes server. Every failure is a [shared.ParseError].
package services
