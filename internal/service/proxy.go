// Package service implements the gateway's routing, forwarding and health logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"api-gateway-go/internal/client"
	"api-gateway-go/internal/metrics"
	"api-gateway-go/internal/model"
	"api-gateway-go/internal/rewrite"
	"api-gateway-go/internal/route"
)

// outcomeOK labels a proxied request that produced a 2xx or 3xx upstream response.
const outcomeOK = "ok"

// ProxyService resolves, rewrites and forwards requests to backend services.
// It holds no mutable state and is safe for concurrent use.
type ProxyService struct {
	client   *client.UpstreamClient
	routes   *route.Table
	services *route.Directory
	rewriter *rewrite.Rewriter
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewProxyService creates a ProxyService. The metrics parameter is optional.
func NewProxyService(
	c *client.UpstreamClient,
	routes *route.Table,
	services *route.Directory,
	rw *rewrite.Rewriter,
	logger *slog.Logger,
	m *metrics.Metrics,
) *ProxyService {
	return &ProxyService{
		client:   c,
		routes:   routes,
		services: services,
		rewriter: rw,
		logger:   logger.With("component", "proxy_service"),
		metrics:  m,
	}
}

// Routes returns the route table.
func (s *ProxyService) Routes() []route.Route {
	return s.routes.Routes()
}

// Forward routes a ProxyRequest to its backend and returns the response.
// It never fails: routing errors, local rejections and transport failures are
// all rendered as JSON error responses. The caller must close the response body.
func (s *ProxyService) Forward(pr *model.ProxyRequest) *model.ProxyResponse {
	start := time.Now()

	rt, ok := s.routes.Find(pr.Path)
	if !ok {
		return s.fail(pr, "", start, &model.Error{
			Kind:    model.KindRouteNotFound,
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("No route found for path: %s", pr.Path),
		})
	}

	baseURL, ok := s.services.Resolve(rt.Service)
	if !ok {
		return s.fail(pr, rt.Service, start, &model.Error{
			Kind:    model.KindServiceUnconfigured,
			Status:  http.StatusServiceUnavailable,
			Message: fmt.Sprintf("Service URL not configured for: %s", rt.Service),
		})
	}

	if !rt.Allows(pr.Method) {
		resp := s.fail(pr, rt.Service, start, &model.Error{
			Kind:    model.KindMethodNotAllowed,
			Status:  http.StatusMethodNotAllowed,
			Message: fmt.Sprintf("Method %s not allowed for %s", pr.Method, rt.Prefix),
		})
		resp.Header.Set("Allow", strings.Join(rt.Methods, ", "))
		return resp
	}

	target, err := s.rewriter.Rewrite(rt, pr.Path, pr.Query)
	if err != nil {
		var gwErr *model.Error
		if !errors.As(err, &gwErr) {
			gwErr = &model.Error{
				Kind:    model.KindUpstreamUnavailable,
				Status:  http.StatusInternalServerError,
				Code:    "service_unavailable",
				Message: "request could not be rewritten",
				Err:     err,
			}
		}
		return s.fail(pr, rt.Service, start, gwErr)
	}

	upstreamURL := buildUpstreamURL(baseURL, target)
	header := SanitizeRequestHeaders(pr.Header)
	method := strings.ToUpper(pr.Method)

	body, length := requestBody(method, pr.Body, pr.ContentLength)
	req, err := http.NewRequestWithContext(pr.Ctx, method, upstreamURL, body)
	if err != nil {
		return s.fail(pr, rt.Service, start, &model.Error{
			Kind:    model.KindUpstreamUnavailable,
			Status:  http.StatusInternalServerError,
			Code:    "service_unavailable",
			Message: "upstream request could not be built",
			Err:     err,
		})
	}
	req.Header = header
	req.ContentLength = length

	s.logger.Debug("forwarding request",
		"service", rt.Service,
		"method", method,
		"path", pr.Path,
		"upstream_path", target.Path,
	)

	resp, err := s.client.Do(rt.Service, req)
	if err != nil {
		return s.fail(pr, rt.Service, start, classifyTransportError(err))
	}

	outcome := outcomeOK
	level := slog.LevelInfo
	if resp.StatusCode >= http.StatusBadRequest {
		outcome = string(model.KindUpstreamError)
		level = slog.LevelWarn
	}
	s.logger.Log(pr.Ctx, level, "proxy response",
		"service", rt.Service,
		"method", method,
		"path", pr.Path,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	s.observe(rt.Service, outcome)

	resp.Header = filterResponseHeaders(resp.Header)
	return resp
}

// requestBody returns the body to forward and its length. Bodyless methods
// forward nothing. An empty body goes out with an explicit zero length and
// an unknown length (-1) is streamed chunked.
func requestBody(method string, body io.ReadCloser, length int64) (io.Reader, int64) {
	switch {
	case method == http.MethodGet || method == http.MethodHead:
		return nil, 0
	case body == nil || body == http.NoBody || length == 0:
		return http.NoBody, 0
	}
	return body, length
}

// buildUpstreamURL joins the service base URL with the rewritten target.
// target.Path is already escaped.
func buildUpstreamURL(baseURL string, target rewrite.Target) string {
	u := strings.TrimRight(baseURL, "/") + target.Path
	if len(target.Query) > 0 {
		u += "?" + target.Query.Encode()
	}
	return u
}

func (s *ProxyService) fail(pr *model.ProxyRequest, service string, start time.Time, gwErr *model.Error) *model.ProxyResponse {
	level := slog.LevelWarn
	if gwErr.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(pr.Ctx, level, "proxy failed",
		"service", service,
		"method", pr.Method,
		"path", pr.Path,
		"kind", gwErr.Kind,
		"status", gwErr.Status,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"err", gwErr.Error(),
	)
	if service == "" {
		service = "none"
	}
	s.observe(service, string(gwErr.Kind))
	return gwErr.Response()
}

func (s *ProxyService) observe(service, outcome string) {
	if s.metrics != nil {
		s.metrics.ProxyOutcomes.WithLabelValues(service, outcome).Inc()
	}
}

// classifyTransportError maps an upstream transport failure to a gateway error.
// Messages are fixed strings; the cause stays in Err for logging only.
func classifyTransportError(err error) *model.Error {
	gwErr := &model.Error{
		Kind:    model.KindUpstreamUnavailable,
		Status:  http.StatusInternalServerError,
		Code:    "service_unavailable",
		Message: "upstream request failed",
		Err:     err,
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.Canceled):
		gwErr.Message = "client disconnected"
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		gwErr.Message = "upstream request timed out"
	case errors.As(err, &dnsErr):
		gwErr.Message = "upstream host unreachable"
	case errors.As(err, &urlErr):
		gwErr.Message = "upstream connection failed"
	}
	return gwErr
}
