package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/vyrodovalexey/minapi/internal/util"
)

// Methods accepted by Register.
var allowedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

// PathParams maps capture-segment names to the literal values
// occupying their positions in the request path. It lives only for
// the duration of one request.
type PathParams map[string]string

// Route is one registered (method, pattern, handler) binding.
type Route struct {
	Method  string
	Pattern string
	Handler Handler

	segments []segment
	captures map[string]bool
}

// Table is the route registry. Register is called only during
// startup, before the listener begins accepting; after that the table
// is read-only and lookups from concurrent workers need no locking.
type Table struct {
	routes []*Route
	byKey  map[string]*Route
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{
		byKey: make(map[string]*Route),
	}
}

// Register adds a route. A duplicate (method, pattern) pair — with
// captures comparing as wildcards — or a duplicate capture name within
// one pattern is a startup-fatal ConfigError. Registration order is
// the matching order.
func (t *Table) Register(method, pattern string, h Handler) error {
	method = strings.ToUpper(method)
	if !allowedMethods[method] {
		return util.NewConfigError(pattern, fmt.Sprintf("unsupported method %q", method))
	}

	segments, err := parsePattern(pattern)
	if err != nil {
		return err
	}

	captures := make(map[string]bool)
	for _, seg := range segments {
		if seg.isCapture {
			captures[seg.name] = true
		}
	}

	params, err := resolveParams(pattern, captures, h.Params)
	if err != nil {
		return err
	}
	h.Params = params

	key := structuralKey(method, segments)
	if _, exists := t.byKey[key]; exists {
		return util.NewConfigError(pattern, "duplicate route for method "+method)
	}

	route := &Route{
		Method:   method,
		Pattern:  pattern,
		Handler:  h,
		segments: segments,
		captures: captures,
	}

	t.routes = append(t.routes, route)
	t.byKey[key] = route

	metrics().routesRegistered.Inc()

	return nil
}

// Lookup finds the first route matching method and path, binding
// capture segments to their values. A method mismatch on an
// otherwise-matching path is reported the same as no match at all.
func (t *Table) Lookup(method, path string) (*Route, PathParams, error) {
	for _, route := range t.routes {
		if route.Method != method {
			continue
		}
		if params, ok := matchSegments(route.segments, path); ok {
			metrics().matchesTotal.Inc()
			return route, params, nil
		}
	}

	metrics().missesTotal.Inc()
	return nil, nil, util.NewRouteNotFoundError(method, path)
}

// Routes returns the registered routes in registration order.
func (t *Table) Routes() []*Route {
	routes := make([]*Route, len(t.routes))
	copy(routes, t.routes)
	return routes
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Invoke runs the route's handler. A panic during invocation is
// caught here and returned as an error so one faulty handler cannot
// take down the worker that called it.
func (r *Route) Invoke(ctx context.Context, args Args) (out string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("handler panic on %s %s: %v", r.Method, r.Pattern, v)
		}
	}()

	return r.Handler.Fn(ctx, args)
}
