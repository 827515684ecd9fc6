package wire

import (
	"bufio"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/minapi/internal/util"
)

// maxHeaderCount bounds the number of header lines read from one
// request before it is rejected as malformed.
const maxHeaderCount = 128

// maxLineLength bounds a single request or header line. A client
// streaming bytes without a newline is rejected here instead of
// growing the worker's buffer until the read deadline.
const maxLineLength = 8 << 10

// Request is one parsed incoming HTTP request. It is created fresh per
// accepted connection and discarded after the response is written.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Proto    string

	// Query holds decoded query parameters; on duplicate keys the last
	// occurrence wins.
	Query map[string]string

	// headers keeps lowercased names for case-insensitive lookup.
	headers map[string]string

	Body []byte
}

// Header returns the value of the named header, case-insensitively.
func (r *Request) Header(name string) (string, bool) {
	v, ok := r.headers[strings.ToLower(name)]
	return v, ok
}

// ParseRequest reads exactly one HTTP/1.1 request from br.
//
// A malformed request line, an unsupported protocol version, a broken
// header line, or an unparsable Content-Length produce a
// util.ParseError (HTTP 400). An io error mid-read is returned as-is
// and signals a transport failure the caller absorbs by closing the
// connection.
func ParseRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		return nil, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	if err := parseHeaders(br, req); err != nil {
		return nil, err
	}

	if err := readBody(br, req); err != nil {
		return nil, err
	}

	return req, nil
}

// readLine reads one CRLF- or LF-terminated line, without the
// terminator. Lines beyond maxLineLength are rejected as malformed.
func readLine(br *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineLength {
			return "", util.NewParseError("line exceeds maximum length")
		}
		if err == nil {
			break
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(line) != 0 {
			return "", util.NewParseError("unterminated line")
		}
		return "", err
	}

	s := strings.TrimSuffix(string(line), "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// parseRequestLine splits "METHOD /path?query HTTP/1.1" into a Request.
func parseRequestLine(line string) (*Request, error) {
	if line == "" {
		return nil, util.NewParseError("empty request line")
	}

	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, util.NewParseError("request line must be METHOD TARGET VERSION")
	}

	method, target, proto := parts[0], parts[1], parts[2]
	if method == "" {
		return nil, util.NewParseError("missing method")
	}
	if target == "" || !strings.HasPrefix(target, "/") {
		return nil, util.NewParseError("missing or relative request path")
	}
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return nil, util.NewParseError("unsupported protocol version " + proto)
	}

	path := target
	rawQuery := ""
	if i := strings.Index(target, "?"); i >= 0 {
		path = target[:i]
		rawQuery = target[i+1:]
	}

	query, err := parseQuery(rawQuery)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:   method,
		Path:     path,
		RawQuery: rawQuery,
		Proto:    proto,
		Query:    query,
		headers:  make(map[string]string),
	}, nil
}

// parseQuery decodes a raw query string pair-wise on '&' then '=',
// percent-decoding keys and values. The last occurrence of a duplicate
// key wins.
func parseQuery(rawQuery string) (map[string]string, error) {
	query := make(map[string]string)
	if rawQuery == "" {
		return query, nil
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}

		key := pair
		value := ""
		if i := strings.Index(pair, "="); i >= 0 {
			key = pair[:i]
			value = pair[i+1:]
		}

		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return nil, util.NewParseErrorWithCause("bad query key encoding", err)
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, util.NewParseErrorWithCause("bad query value encoding", err)
		}

		query[decodedKey] = decodedValue
	}

	return query, nil
}

// parseHeaders reads header lines until the blank line that ends them.
func parseHeaders(br *bufio.Reader, req *Request) error {
	for i := 0; ; i++ {
		if i >= maxHeaderCount {
			return util.NewParseError("too many header lines")
		}

		line, err := readLine(br)
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}

		colon := strings.Index(line, ":")
		if colon <= 0 {
			return util.NewParseError("header line without name: " + line)
		}

		name := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])
		req.headers[name] = value
	}
}

// readBody reads exactly Content-Length body bytes when the header is
// present and non-zero.
func readBody(br *bufio.Reader, req *Request) error {
	raw, ok := req.Header("Content-Length")
	if !ok {
		return nil
	}

	length, err := strconv.Atoi(raw)
	if err != nil {
		return util.NewParseErrorWithCause("unparsable Content-Length "+raw, err)
	}
	if length < 0 {
		return util.NewParseError("negative Content-Length")
	}
	if length == 0 {
		return nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		return err
	}
	req.Body = body

	return nil
}
