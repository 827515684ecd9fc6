package router

import (
	"context"

	"github.com/vyrodovalexey/minapi/internal/util"
	"github.com/vyrodovalexey/minapi/internal/wire"
)

// Source identifies where a declared handler parameter is resolved
// from.
type Source int

// Parameter sources. SourceAuto is resolved at registration time:
// a parameter whose name matches a pattern capture becomes SourcePath,
// everything else becomes SourceQuery. SourceBody must be declared
// explicitly and is permitted for at most one parameter per handler.
const (
	SourceAuto Source = iota
	SourcePath
	SourceQuery
	SourceBody
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourcePath:
		return "path"
	case SourceQuery:
		return "query"
	case SourceBody:
		return "body"
	default:
		return "auto"
	}
}

// Param is one declared handler parameter.
type Param struct {
	Name   string
	Source Source
}

// Args holds the bound string values for a handler invocation, keyed
// by declared parameter name. No coercion is performed: a handler
// wanting a non-string type converts the value itself and reports
// conversion failure through its error return.
type Args map[string]string

// Get returns the bound value for name, or the empty string.
func (a Args) Get(name string) string {
	return a[name]
}

// HandlerFunc is the calling contract for route handlers. The return
// value becomes the response body verbatim; a returned error is a
// declared failure mapped to HTTP 400.
type HandlerFunc func(ctx context.Context, args Args) (string, error)

// Handler describes a route's callable and its declared parameters in
// declaration order.
type Handler struct {
	Params []Param
	Fn     HandlerFunc
}

// resolveParams derives the static source for each declared parameter
// at registration time and validates the declaration.
func resolveParams(pattern string, captures map[string]bool, params []Param) ([]Param, error) {
	resolved := make([]Param, len(params))
	seen := make(map[string]bool, len(params))
	bodyCount := 0

	for i, p := range params {
		if p.Name == "" {
			return nil, util.NewConfigError(pattern, "parameter with empty name")
		}
		if seen[p.Name] {
			return nil, util.NewConfigError(pattern, "duplicate parameter "+p.Name)
		}
		seen[p.Name] = true

		switch p.Source {
		case SourceAuto:
			if captures[p.Name] {
				p.Source = SourcePath
			} else {
				p.Source = SourceQuery
			}
		case SourcePath:
			if !captures[p.Name] {
				return nil, util.NewConfigError(pattern,
					"path parameter "+p.Name+" has no matching capture")
			}
		case SourceBody:
			bodyCount++
			if bodyCount > 1 {
				return nil, util.NewConfigError(pattern, "more than one body parameter")
			}
			if captures[p.Name] {
				return nil, util.NewConfigError(pattern,
					"body parameter "+p.Name+" collides with a capture")
			}
		case SourceQuery:
			// Nothing to derive.
		}

		resolved[i] = p
	}

	return resolved, nil
}

// Bind resolves the route's declared parameters, in declaration
// order, against the union of path captures, query parameters, and
// the request body. Per-parameter precedence is path capture, then
// query, then — only for the one body-designated parameter — the raw
// body as a string. A parameter that resolves nowhere is a
// BindingError naming it. Query parameters the handler never declared
// are ignored.
func Bind(route *Route, req *wire.Request, pathParams PathParams) (Args, error) {
	args := make(Args, len(route.Handler.Params))

	for _, p := range route.Handler.Params {
		if v, ok := pathParams[p.Name]; ok {
			args[p.Name] = v
			continue
		}
		if v, ok := req.Query[p.Name]; ok {
			args[p.Name] = v
			continue
		}
		if p.Source == SourceBody && len(req.Body) > 0 {
			args[p.Name] = string(req.Body)
			continue
		}
		return nil, util.NewBindingError(p.Name)
	}

	return args, nil
}
