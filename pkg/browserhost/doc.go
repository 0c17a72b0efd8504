// Package browserhost is a client for the remote browser hosting API (Browserbase-compatible).
//
// The pipeline needs two calls: CreateContext makes a persistent browser context (cookies and
// storage survive between sessions) and CreateSession starts a browser bound to that context,
// returning the websocket URL the local driver connects to. Requests are rate limited
// client-side with golang.org/x/time/rate, traced through otelhttp and retried with the
// configured retry.Policy on 429 and 5xx answers. Other non-2xx answers are returned as
// *APIError, which matches ErrAPI.
package browserhost
