// Package requestid tags every run API request with an id.
//
// Middleware accepts a well-formed X-Request-ID header or generates a UUID, echoes it
// in the response and stores it in the request context. LoggerExtractor plugs into
// logger.WithContextExtractors so records logged while serving the request carry
// request_id.
package requestid
