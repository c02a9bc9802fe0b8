// Package routes builds the fixed route table of the image API.
//
// The table maps each compute operation to an HTTP method under one nested
// path. Whether a route requires an API key is decided elsewhere and applied
// uniformly with Table.Protect.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lex00/image-api-stack-go/internal/compute"
)

// DefaultSegments is the nested path /api/image.
var DefaultSegments = []string{"api", "image"}

// ErrInvalidPath is returned for an empty path or a blank segment.
var ErrInvalidPath = errors.New("invalid route path")

// Config selects the path the routes live under.
type Config struct {
	// Segments are nested resources, outermost first.
	Segments []string
}

// Route binds one method and path to a compute target.
type Route struct {
	Segments       []string
	Method         string
	Target         compute.Target
	APIKeyRequired bool
}

// Table is the ordered set of routes.
type Table struct {
	Routes []Route
}

var methods = []struct {
	method string
	op     compute.Operation
}{
	{http.MethodGet, compute.GetImage},
	{http.MethodPost, compute.PostImage},
}

// Build returns GET and POST routes under cfg.Segments, bound to their
// compute targets. APIKeyRequired is left false.
func Build(cfg Config) (Table, error) {
	segments := cfg.Segments
	if segments == nil {
		segments = DefaultSegments
	}
	if len(segments) == 0 {
		return Table{}, fmt.Errorf("%w: no segments", ErrInvalidPath)
	}
	for i, s := range segments {
		if strings.TrimSpace(s) == "" || strings.Contains(s, "/") {
			return Table{}, fmt.Errorf("%w: segment %d is %q", ErrInvalidPath, i, s)
		}
	}

	table := Table{Routes: make([]Route, 0, len(methods))}
	for _, m := range methods {
		table.Routes = append(table.Routes, Route{
			Segments: append([]string(nil), segments...),
			Method:   m.method,
			Target:   compute.Resolve(m.op),
		})
	}
	return table, nil
}

// Protect returns a copy of the table with APIKeyRequired set to required on
// every route.
func (t Table) Protect(required bool) Table {
	out := Table{Routes: make([]Route, len(t.Routes))}
	for i, r := range t.Routes {
		r.Segments = append([]string(nil), r.Segments...)
		r.APIKeyRequired = required
		out.Routes[i] = r
	}
	return out
}

// Lookup finds the route for method, if any.
func (t Table) Lookup(method string) (Route, bool) {
	for _, r := range t.Routes {
		if r.Method == method {
			return r, true
		}
	}
	return Route{}, false
}

// Path renders the route path, e.g. /api/image.
func (r Route) Path() string {
	return "/" + strings.Join(r.Segments, "/")
}

// String renders "GET /api/image".
func (r Route) String() string {
	return r.Method + " " + r.Path()
}
