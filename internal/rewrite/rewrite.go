// Package rewrite computes upstream paths and queries for matched routes.
package rewrite

import (
	"net/http"
	"net/url"
	"strings"

	"api-gateway-go/internal/config"
	"api-gateway-go/internal/model"
	"api-gateway-go/internal/route"
)

// Target is the rewritten upstream location. Path is escaped and relative to
// the service's base URL.
type Target struct {
	Path  string
	Query url.Values
}

// Relative is an inbound path with the external prefix removed. All fields
// are escaped and either empty or start with "/".
type Relative struct {
	// Path is everything after the external prefix, e.g. "/weather/current/Recife".
	Path string
	// Segment is the route's own prefix segment, e.g. "/weather".
	Segment string
	// Remainder is Path with Segment removed, e.g. "/current/Recife".
	Remainder string
}

// Strategy computes the upstream target for a relative path. Strategies may
// modify query, which the Rewriter owns.
type Strategy interface {
	Rewrite(rel Relative, query url.Values) (Target, error)
}

// Passthrough forwards the remainder unchanged.
type Passthrough struct{}

func (Passthrough) Rewrite(rel Relative, query url.Values) (Target, error) {
	if rel.Remainder == "" {
		return Target{Path: "/", Query: query}, nil
	}
	return Target{Path: rel.Remainder, Query: query}, nil
}

// CityPath implements the weather service convention: a city given as a
// query parameter becomes part of the path. Without one, the path after the
// external prefix, route segment included, is forwarded under SubPath.
type CityPath struct {
	// SubPath is prepended to every upstream path, e.g. "/weather". May be empty.
	SubPath string
}

// ErrMissingCity is returned when neither a city parameter nor further path
// segments were given.
var ErrMissingCity = &model.Error{
	Kind:    model.KindMissingRequiredParameter,
	Status:  http.StatusBadRequest,
	Code:    "missing_city",
	Message: "Provide ?city=NomeDaCidade",
}

func (s CityPath) Rewrite(rel Relative, query url.Values) (Target, error) {
	city := cityParam(query)
	if city != "" {
		query.Del("city")
		query.Del("q")
		return Target{
			Path:  s.SubPath + "/current/" + url.PathEscape(city),
			Query: query,
		}, nil
	}
	if rel.Path == "" || rel.Path == "/" || rel.Path == rel.Segment {
		return Target{}, ErrMissingCity
	}
	return Target{Path: s.SubPath + rel.Path, Query: query}, nil
}

// cityParam returns the trimmed "city" parameter, falling back to "q" only
// when "city" is absent.
func cityParam(query url.Values) string {
	if query.Has("city") {
		return strings.TrimSpace(query.Get("city"))
	}
	return strings.TrimSpace(query.Get("q"))
}

// Rewriter selects a Strategy per service, defaulting to Passthrough.
type Rewriter struct {
	strategies map[string]Strategy
	fallback   Strategy
}

// New creates a Rewriter from a service-name to strategy table.
func New(strategies map[string]Strategy) *Rewriter {
	s := make(map[string]Strategy, len(strategies))
	for k, v := range strategies {
		s[k] = v
	}
	return &Rewriter{strategies: s, fallback: Passthrough{}}
}

// NewFromConfig registers the weather convention with the configured sub-path.
func NewFromConfig(cfg *config.Config) *Rewriter {
	return New(map[string]Strategy{
		"weather": CityPath{SubPath: strings.TrimRight(cfg.Services.WeatherPathPrefix, "/")},
	})
}

// Rewrite splits escapedPath into its Relative parts, collapses query to one
// value per key (last wins) and applies the service's strategy. The input
// query is not modified.
func (rw *Rewriter) Rewrite(rt route.Route, escapedPath string, query url.Values) (Target, error) {
	segment := stripPrefix(rt.Prefix, route.ExternalPrefix)
	path := stripPrefix(escapedPath, route.ExternalPrefix)
	rel := Relative{
		Path:      leadingSlash(path),
		Segment:   leadingSlash(segment),
		Remainder: leadingSlash(stripPrefix(path, segment)),
	}

	strategy, ok := rw.strategies[rt.Service]
	if !ok {
		strategy = rw.fallback
	}
	return strategy.Rewrite(rel, collapse(query))
}

func leadingSlash(p string) string {
	if p != "" && p[0] != '/' {
		return "/" + p
	}
	return p
}

// stripPrefix removes prefix from p. An empty result stays empty; the caller
// decides what an empty path means.
func stripPrefix(p, prefix string) string {
	if prefix == "" || prefix == "/" {
		return p
	}
	if !strings.HasPrefix(p, prefix) {
		return p
	}
	return p[len(prefix):]
}

// collapse copies query keeping only the last value of each key.
func collapse(query url.Values) url.Values {
	out := make(url.Values, len(query))
	for k, vals := range query {
		if len(vals) == 0 {
			continue
		}
		out.Set(k, vals[len(vals)-1])
	}
	return out
}
