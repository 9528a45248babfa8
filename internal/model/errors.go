package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Kind enumerates the gateway's error categories.
type Kind string

const (
	KindRouteNotFound            Kind = "route_not_found"
	KindServiceUnconfigured      Kind = "service_unconfigured"
	KindMethodNotAllowed         Kind = "method_not_allowed"
	KindMissingRequiredParameter Kind = "missing_required_parameter"
	KindUpstreamUnavailable      Kind = "upstream_unavailable"
	// KindUpstreamError marks a non-2xx upstream response. It is relayed as-is
	// and only used for logging and metrics.
	KindUpstreamError Kind = "upstream_error"
)

// Error is a gateway-handled failure. Status and the JSON body are what the
// caller sees; Err carries the internal cause for logs only.
type Error struct {
	Kind    Kind
	Status  int
	Code    string // value of the "error" field in the JSON body
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorBody is the JSON shape of every gateway-synthesized error.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Body returns the JSON body for the error.
func (e *Error) Body() ErrorBody {
	code := e.Code
	if code == "" {
		code = string(e.Kind)
	}
	return ErrorBody{Error: code, Message: e.Message}
}

// Response renders the error as a ProxyResponse with a JSON body.
func (e *Error) Response() *ProxyResponse {
	data, err := json.Marshal(e.Body())
	if err != nil {
		// ErrorBody holds only strings; Marshal cannot fail.
		panic(err)
	}
	h := make(http.Header)
	h.Set("Content-Type", "application/json; charset=UTF-8")
	return &ProxyResponse{
		StatusCode: e.Status,
		Header:     h,
		Body:       io.NopCloser(bytes.NewReader(data)),
	}
}
