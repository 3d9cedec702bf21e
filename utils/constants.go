package utils

import (
	"time"
)

// Download link constants
const (
	// DownloadLinkTTL is the time-to-live for signed download links (6 hours).
	// Independent of the gate's own expiry.
	DownloadLinkTTL = 6 * time.Hour

	// GateCacheTTL is how long a gate row is cached in Redis after a slug lookup
	GateCacheTTL = 60 * time.Second
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Context keys used by handlers when building request contexts
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserAgentKey ContextKey = "user_agent"
	IPAddressKey ContextKey = "ip_address"
	EndpointKey  ContextKey = "endpoint"
	TimeoutKey   ContextKey = "timeout"
	CancelFunc   ContextKey = "cancel_func"
)
