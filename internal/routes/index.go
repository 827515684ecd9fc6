package routes

import (
	"context"
	"fmt"

	"github.com/vyrodovalexey/minapi/internal/router"
	"github.com/vyrodovalexey/minapi/internal/wire"
)

// ServiceInfo identifies the running service in the index and version
// responses.
type ServiceInfo struct {
	Name    string
	Version string
}

// Register installs the route set into the table. Patterns are matched
// in the order listed here; the first error aborts registration and is
// fatal at startup.
func Register(table *router.Table, info ServiceInfo) error {
	type record struct {
		method  string
		pattern string
		handler router.Handler
	}

	records := []record{
		{"GET", "/", router.Handler{
			Fn: func(ctx context.Context, args router.Args) (string, error) {
				return fmt.Sprintf("Hello from %s v%s!", info.Name, info.Version), nil
			},
		}},
		{"GET", "/name", router.Handler{
			Fn: func(ctx context.Context, args router.Args) (string, error) {
				return info.Name, nil
			},
		}},
		{"GET", "/version", router.Handler{
			Fn: func(ctx context.Context, args router.Args) (string, error) {
				return info.Version, nil
			},
		}},
		{"GET", "/who", router.Handler{
			Params: []router.Param{{Name: "name"}},
			Fn: func(ctx context.Context, args router.Args) (string, error) {
				return fmt.Sprintf("Hello, %s!", args.Get("name")), nil
			},
		}},
		{"GET", "/user/{id}", router.Handler{
			Params: []router.Param{{Name: "id"}},
			Fn: func(ctx context.Context, args router.Args) (string, error) {
				return wire.JSONObject(map[string]string{"id": wire.JSONString(args.Get("id"))}), nil
			},
		}},
		{"POST", "/echo", router.Handler{
			Params: []router.Param{{Name: "payload", Source: router.SourceBody}},
			Fn: func(ctx context.Context, args router.Args) (string, error) {
				return args.Get("payload"), nil
			},
		}},
		{"GET", "/healthz", router.Handler{
			Fn: func(ctx context.Context, args router.Args) (string, error) {
				return wire.JSONObject(map[string]string{"status": wire.JSONString("ok")}), nil
			},
		}},
	}

	for _, r := range records {
		if err := table.Register(r.method, r.pattern, r.handler); err != nil {
			return err
		}
	}

	return nil
}
