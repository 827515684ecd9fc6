package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/minapi/internal/config"
	"github.com/vyrodovalexey/minapi/internal/observability"
	"github.com/vyrodovalexey/minapi/internal/router"
	"github.com/vyrodovalexey/minapi/internal/util"
)

func testTable(t *testing.T) *router.Table {
	t.Helper()
	table := router.NewTable()

	require.NoError(t, table.Register("GET", "/", router.Handler{
		Fn: func(ctx context.Context, args router.Args) (string, error) {
			return "Hello!", nil
		},
	}))
	require.NoError(t, table.Register("GET", "/who", router.Handler{
		Params: []router.Param{{Name: "name"}},
		Fn: func(ctx context.Context, args router.Args) (string, error) {
			return fmt.Sprintf("Hello, %s!", args.Get("name")), nil
		},
	}))
	require.NoError(t, table.Register("GET", "/user/{id}", router.Handler{
		Params: []router.Param{{Name: "id"}},
		Fn: func(ctx context.Context, args router.Args) (string, error) {
			return fmt.Sprintf(`{"user":%q}`, args.Get("id")), nil
		},
	}))
	require.NoError(t, table.Register("POST", "/echo", router.Handler{
		Params: []router.Param{{Name: "payload", Source: router.SourceBody}},
		Fn: func(ctx context.Context, args router.Args) (string, error) {
			return args.Get("payload"), nil
		},
	}))
	require.NoError(t, table.Register("GET", "/fail", router.Handler{
		Fn: func(ctx context.Context, args router.Args) (string, error) {
			return "", util.NewHandlerError("bad input")
		},
	}))
	require.NoError(t, table.Register("GET", "/boom", router.Handler{
		Fn: func(ctx context.Context, args router.Args) (string, error) {
			panic("kaput")
		},
	}))

	return table
}

func startTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Server{Bind: "127.0.0.1", Port: 0, Workers: 2}
	srv, err := NewServer(cfg, testTable(t), WithLogger(observability.NopLogger()))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})

	return srv
}

// roundTrip writes one raw request and reads the connection to EOF,
// which the server must produce by closing after the response.
func roundTrip(t *testing.T, addr net.Addr, raw string) string {
	t.Helper()

	data, err := tryRoundTrip(addr, raw)
	require.NoError(t, err)
	return data
}

func get(path string) string {
	return fmt.Sprintf("GET %s HTTP/1.1\r\nHost: localhost\r\n\r\n", path)
}

func TestServer_ServesRegisteredRoutes(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	resp := roundTrip(t, srv.Addr(), get("/"))
	assert.True(t, strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"), resp)
	assert.Contains(t, resp, "Content-Type: application/json\r\n")
	assert.True(t, strings.HasSuffix(resp, "\r\n\r\nHello!"), resp)

	resp = roundTrip(t, srv.Addr(), get("/who?name=Ada"))
	assert.Contains(t, resp, "200 OK")
	assert.True(t, strings.HasSuffix(resp, "Hello, Ada!"), resp)
}

func TestServer_PathCapture(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	resp := roundTrip(t, srv.Addr(), get("/user/42"))
	assert.Contains(t, resp, "200 OK")
	assert.Contains(t, resp, `{"user":"42"}`)

	// One trailing slash is equivalent.
	resp = roundTrip(t, srv.Addr(), get("/user/42/"))
	assert.Contains(t, resp, "200 OK")
}

func TestServer_BodyParameter(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	body := `{"k":"v"}`
	raw := fmt.Sprintf("POST /echo HTTP/1.1\r\nHost: localhost\r\nContent-Length: %d\r\n\r\n%s", len(body), body)
	resp := roundTrip(t, srv.Addr(), raw)
	assert.Contains(t, resp, "200 OK")
	assert.True(t, strings.HasSuffix(resp, body), resp)
}

func TestServer_MissingParameterIs400(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	resp := roundTrip(t, srv.Addr(), get("/who"))
	assert.Contains(t, resp, "400 Bad Request")
	assert.Contains(t, resp, `{"error":"missing required parameter: name"}`)
}

func TestServer_UnmatchedRequestsAre404(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	// Unknown path.
	resp := roundTrip(t, srv.Addr(), get("/nope"))
	assert.Contains(t, resp, "404 Not Found")
	assert.Contains(t, resp, `{"error":`)

	// Segment count differs from every pattern.
	resp = roundTrip(t, srv.Addr(), get("/user/42/extra"))
	assert.Contains(t, resp, "404 Not Found")

	// Path exists, method does not.
	resp = roundTrip(t, srv.Addr(), "DELETE /who HTTP/1.1\r\nHost: localhost\r\n\r\n")
	assert.Contains(t, resp, "404 Not Found")

	// Capture segments never match empty.
	resp = roundTrip(t, srv.Addr(), get("/user//"))
	assert.Contains(t, resp, "404 Not Found")
}

func TestServer_MalformedRequestIs400(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	resp := roundTrip(t, srv.Addr(), "GET /who\r\n\r\n")
	assert.Contains(t, resp, "400 Bad Request")
	assert.Contains(t, resp, `{"error":`)
}

func TestServer_HandlerErrorIs400(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	resp := roundTrip(t, srv.Addr(), get("/fail"))
	assert.Contains(t, resp, "400 Bad Request")
	assert.Contains(t, resp, "bad input")
}

func TestServer_HandlerPanicIs500AndServerSurvives(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	resp := roundTrip(t, srv.Addr(), get("/boom"))
	assert.Contains(t, resp, "500 Internal Server Error")
	assert.Contains(t, resp, `{"error":"internal server error"}`)
	assert.NotContains(t, resp, "kaput")

	// The worker recovered and keeps serving.
	resp = roundTrip(t, srv.Addr(), get("/"))
	assert.Contains(t, resp, "200 OK")
}

func TestServer_RepeatedGETsAreByteIdentical(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	first := roundTrip(t, srv.Addr(), get("/who?name=Ada"))
	second := roundTrip(t, srv.Addr(), get("/who?name=Ada"))
	assert.Equal(t, first, second)
}

func TestServer_ClosesAfterOneResponse(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = io.WriteString(conn, get("/"))
	require.NoError(t, err)

	// Reading to EOF proves the server, not the client, closed.
	_, err = io.ReadAll(conn)
	require.NoError(t, err)

	_, err = io.WriteString(conn, get("/"))
	if err == nil {
		buf := make([]byte, 1)
		_, err = conn.Read(buf)
	}
	require.Error(t, err)
}

func TestServer_StopRejectsNewConnections(t *testing.T) {
	t.Parallel()

	cfg := config.Server{Bind: "127.0.0.1", Port: 0, Workers: 1}
	srv, err := NewServer(cfg, testTable(t), WithLogger(observability.NopLogger()))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	addr := srv.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.False(t, srv.IsRunning())

	_, err = net.DialTimeout("tcp", addr, 500*time.Millisecond)
	require.Error(t, err)
}

func TestServer_IsSingleUse(t *testing.T) {
	t.Parallel()

	cfg := config.Server{Bind: "127.0.0.1", Port: 0, Workers: 1}
	srv, err := NewServer(cfg, testTable(t), WithLogger(observability.NopLogger()))
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))

	addr := srv.Addr()
	resp := roundTrip(t, addr, get("/"))
	assert.Contains(t, resp, "200 OK")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	// Restarting over the closed worker channel must be rejected, not
	// attempted.
	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.False(t, srv.IsRunning())
}

func TestServer_StartTwiceFails(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	err := srv.Start(context.Background())
	require.Error(t, err)
}

func TestNewServer_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewServer(config.Server{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrConfigInvalid)

	_, err = NewServer(config.Server{Workers: -1}, router.NewTable())
	require.Error(t, err)

	srv, err := NewServer(config.Server{Bind: "127.0.0.1"}, router.NewTable())
	require.NoError(t, err)
	assert.False(t, srv.IsRunning())
}

func TestServer_ConcurrentClients(t *testing.T) {
	t.Parallel()
	srv := startTestServer(t)

	const clients = 16
	errs := make(chan error, clients)
	for i := 0; i < clients; i++ {
		go func(n int) {
			resp, err := tryRoundTrip(srv.Addr(), get(fmt.Sprintf("/who?name=c%d", n)))
			if err != nil {
				errs <- fmt.Errorf("client %d: %w", n, err)
				return
			}
			if !strings.Contains(resp, fmt.Sprintf("Hello, c%d!", n)) {
				errs <- fmt.Errorf("client %d got %q", n, resp)
				return
			}
			errs <- nil
		}(i)
	}
	for i := 0; i < clients; i++ {
		require.NoError(t, <-errs)
	}
}

// tryRoundTrip is roundTrip without test assertions, safe to call from
// client goroutines.
func tryRoundTrip(addr net.Addr, raw string) (string, error) {
	conn, err := net.DialTimeout("tcp", addr.String(), 2*time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return "", err
	}
	if _, err := io.WriteString(conn, raw); err != nil {
		return "", err
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
