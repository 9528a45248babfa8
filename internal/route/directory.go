package route

import (
	"strings"

	"api-gateway-go/internal/config"
)

// Endpoint is a backend service and its base URL.
type Endpoint struct {
	Name    string
	BaseURL string
}

// Directory maps service names to base URLs, preserving configuration order.
type Directory struct {
	endpoints []Endpoint
	byName    map[string]string
}

// NewDirectory builds a Directory. Endpoints with an empty URL are omitted so
// that routes pointing at them resolve as unconfigured; a repeated name keeps
// its first URL.
func NewDirectory(endpoints ...Endpoint) *Directory {
	d := &Directory{byName: make(map[string]string, len(endpoints))}
	for _, ep := range endpoints {
		if ep.BaseURL == "" {
			continue
		}
		if _, dup := d.byName[ep.Name]; dup {
			continue
		}
		ep.BaseURL = strings.TrimRight(ep.BaseURL, "/")
		d.endpoints = append(d.endpoints, ep)
		d.byName[ep.Name] = ep.BaseURL
	}
	return d
}

// NewDirectoryFromConfig builds the directory in the fixed order
// weather, auth, cache, alert.
func NewDirectoryFromConfig(cfg *config.Config) *Directory {
	return NewDirectory(
		Endpoint{Name: "weather", BaseURL: cfg.Services.Weather},
		Endpoint{Name: "auth", BaseURL: cfg.Services.Auth},
		Endpoint{Name: "cache", BaseURL: cfg.Services.Cache},
		Endpoint{Name: "alert", BaseURL: cfg.Services.Alert},
	)
}

// Resolve returns the base URL for a service, without a trailing slash.
func (d *Directory) Resolve(name string) (string, bool) {
	u, ok := d.byName[name]
	return u, ok
}

// Names returns service names in configuration order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.endpoints))
	for i, ep := range d.endpoints {
		out[i] = ep.Name
	}
	return out
}

// Endpoints returns a copy of the configured endpoints.
func (d *Directory) Endpoints() []Endpoint {
	out := make([]Endpoint, len(d.endpoints))
	copy(out, d.endpoints)
	return out
}
