// Package ctxkey enumerates the gin context keys shared across middleware
// and handlers.
package ctxkey

const (
	// ApiKey holds the validated API key, empty when absent or invalid.
	ApiKey = "api_key"
	// ClientIP holds the forwarding-header-derived client address.
	ClientIP = "client_ip"
	// RateLimitStatus holds the most-constrained quota status for the request.
	RateLimitStatus = "rate_limit_status"
	// KeyRequestBody caches the raw request body for reuse.
	KeyRequestBody = "key_request_body"
)
