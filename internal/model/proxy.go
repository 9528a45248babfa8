// Package model defines shared types for the gateway.
package model

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ProxyRequest represents an inbound request to be routed to a backend service.
// Path is kept in its escaped form so percent-encoded segments survive rewriting.
// ContentLength is -1 when unknown.
type ProxyRequest struct {
	Ctx           context.Context
	Method        string
	Path          string
	Query         url.Values
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64
}

// ProxyResponse is either the relayed upstream response or a response
// synthesized by the gateway. The caller must close Body.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
