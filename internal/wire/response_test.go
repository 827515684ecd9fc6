package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/minapi/internal/util"
)

func TestOk(t *testing.T) {
	t.Parallel()

	resp := Ok("Hello, Ada!")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, ContentTypeJSON, resp.ContentType)
	assert.Equal(t, "Hello, Ada!", string(resp.Body))
	assert.Equal(t, 11, resp.Len())
}

func TestResponse_Write(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Ok("hi").Write(&buf))

	assert.Equal(t,
		"HTTP/1.1 200 OK\r\nContent-Length: 2\r\nContent-Type: application/json\r\n\r\nhi",
		buf.String())
}

func TestResponse_WriteDeterministic(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	require.NoError(t, Ok("same").Write(&first))
	require.NoError(t, Ok("same").Write(&second))

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestErrorFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "not found carries message",
			err:        util.NewRouteNotFoundError("GET", "/missing"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"no route found for GET /missing"}`,
		},
		{
			name:       "binding failure names the parameter",
			err:        util.NewBindingError("name"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"missing required parameter: name"}`,
		},
		{
			name:       "parse failure",
			err:        util.NewParseError("empty request line"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"malformed request: empty request line"}`,
		},
		{
			name:       "unexpected fault is not leaked",
			err:        errors.New("nil pointer dereference in handler"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := ErrorFrom(tt.err)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantBody, string(resp.Body))
		})
	}
}

func TestErrorFrom_ControlBytesYieldValidJSON(t *testing.T) {
	t.Parallel()

	// Parse errors echo client-controlled tokens into the message; the
	// body must stay valid JSON regardless.
	resp := ErrorFrom(util.NewParseError("unsupported protocol version HTTP/1.\x01"))
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.True(t, json.Valid(resp.Body), "body %q", resp.Body)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(resp.Body, &decoded))
	assert.Equal(t, "malformed request: unsupported protocol version HTTP/1.\x01", decoded["error"])

	resp = ErrorFrom(util.NewParseError("header line without name: \x7f\x00"))
	assert.True(t, json.Valid(resp.Body), "body %q", resp.Body)
}

func TestResponse_WriteStatusLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, ErrorFrom(util.NewRouteNotFoundError("GET", "/x")).Write(&buf))
	assert.Contains(t, buf.String(), "HTTP/1.1 404 Not Found\r\n")
}
