package client

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/matchops/arena-api/common/config"
)

// HTTPClient is the default outbound client for upstream CDN fetches
// (metadata blobs, salt HEAD probes).
var HTTPClient *http.Client

// ImpatientHTTPClient is a short-timeout client for liveness probes and
// demo-availability polling.
var ImpatientHTTPClient *http.Client

// StreamingHTTPClient has no overall timeout and is used to relay live demo
// broadcasts; cancellation is driven by the request context instead.
var StreamingHTTPClient *http.Client

// Init builds the shared HTTP clients with transport and timeout settings
// derived from configuration.
func Init() {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	// HTTP/2 stays disabled: the replay CDN speaks plain HTTP/1.1 and the
	// broadcast relay depends on predictable chunked transfer behavior.
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConnsPerHost: 32,
		TLSNextProto:        make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
	}

	if config.RelayTimeout == 0 {
		HTTPClient = &http.Client{Transport: transport}
	} else {
		HTTPClient = &http.Client{
			Timeout:   time.Duration(config.RelayTimeout) * time.Second,
			Transport: transport,
		}
	}

	ImpatientHTTPClient = &http.Client{
		Timeout:   5 * time.Second,
		Transport: transport,
	}

	StreamingHTTPClient = &http.Client{Transport: transport}
}
