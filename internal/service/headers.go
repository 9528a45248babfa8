package service

import (
	"net/http"
	"strings"
)

// GatewayMarker is the value of the X-Gateway-Service header added to every
// forwarded request.
const GatewayMarker = "api-gateway"

// droppedRequestHeaders are connection-scoped and recomputed by the outbound transport.
var droppedRequestHeaders = map[string]bool{
	"Host":                true,
	"Connection":          true,
	"Content-Length":      true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Proxy-Connection":    true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// droppedResponseHeaders are hop-by-hop headers never relayed to the caller.
var droppedResponseHeaders = map[string]bool{
	"Connection":         true,
	"Keep-Alive":         true,
	"Proxy-Authenticate": true,
	"Proxy-Connection":   true,
	"Te":                 true,
	"Trailer":            true,
	"Transfer-Encoding":  true,
	"Upgrade":            true,
}

// SanitizeRequestHeaders builds the outbound header set from inbound headers.
// Multi-valued headers are joined with ","; X-Forwarded-For falls back to
// X-Real-Ip, then to an empty value. The input is not modified.
func SanitizeRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src)+2)
	for key, vals := range src {
		ck := http.CanonicalHeaderKey(key)
		if droppedRequestHeaders[ck] || len(vals) == 0 {
			continue
		}
		dst[ck] = []string{strings.Join(vals, ",")}
	}

	xff := dst.Get("X-Forwarded-For")
	if xff == "" {
		xff = dst.Get("X-Real-Ip")
	}
	dst["X-Forwarded-For"] = []string{xff}
	dst.Set("X-Gateway-Service", GatewayMarker)
	return dst
}

func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if droppedResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[key] = vals
	}
	return dst
}
