// Package route holds the gateway's static route table and service directory.
// Both are immutable once constructed and safe for concurrent use.
package route

import (
	"net/http"
	"slices"
	"strings"
)

// ExternalPrefix is the path prefix under which all proxied routes live.
const ExternalPrefix = "/api"

// Route maps a path prefix to a backend service.
type Route struct {
	Prefix       string
	Service      string
	Methods      []string
	RequiresAuth bool
}

// Allows reports whether method is permitted on this route.
func (r Route) Allows(method string) bool {
	return slices.Contains(r.Methods, strings.ToUpper(method))
}

// Table is an ordered, immutable list of routes.
type Table struct {
	routes []Route
}

// NewTable copies routes into a Table. Declaration order is significant:
// Find returns the first match.
func NewTable(routes ...Route) *Table {
	t := &Table{routes: make([]Route, len(routes))}
	for i, r := range routes {
		r.Methods = slices.Clone(r.Methods)
		t.routes[i] = r
	}
	return t
}

// DefaultRoutes returns the gateway's built-in route table.
func DefaultRoutes() []Route {
	crud := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}
	return []Route{
		{Prefix: "/api/weather", Service: "weather", Methods: []string{http.MethodGet, http.MethodPost}},
		{Prefix: "/api/auth", Service: "auth", Methods: crud, RequiresAuth: true},
		{Prefix: "/api/cache", Service: "cache", Methods: crud},
		{Prefix: "/api/alerts", Service: "alert", Methods: crud, RequiresAuth: true},
	}
}

// NewDefaultTable builds a Table from DefaultRoutes.
func NewDefaultTable() *Table {
	return NewTable(DefaultRoutes()...)
}

// Find returns the first route whose prefix is a string prefix of path.
// A shorter prefix declared earlier shadows a longer one declared later, and
// "/api/weather" also matches "/api/weatherx".
func (t *Table) Find(path string) (Route, bool) {
	for _, r := range t.routes {
		if strings.HasPrefix(path, r.Prefix) {
			return r, true
		}
	}
	return Route{}, false
}

// Routes returns a copy of the table in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, r := range t.routes {
		r.Methods = slices.Clone(r.Methods)
		out[i] = r
	}
	return out
}

// Prefixes returns the route prefixes in declaration order.
func (t *Table) Prefixes() []string {
	out := make([]string, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.Prefix
	}
	return out
}
