package wire

import (
	"fmt"
	"io"
	"net/http"

	"github.com/vyrodovalexey/minapi/internal/util"
)

// Protocol and header constants for the response wire format.
const (
	HTTPVersion     = "HTTP/1.1"
	ContentTypeJSON = "application/json"
)

// Response is one outgoing HTTP response: written to the socket, then
// discarded.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Ok creates a 200 response carrying the handler's returned string
// verbatim. The handler is responsible for producing valid JSON if it
// wants any; the serializer only declares the content type.
func Ok(body string) *Response {
	return &Response{
		Status:      http.StatusOK,
		ContentType: ContentTypeJSON,
		Body:        []byte(body),
	}
}

// ErrorFrom maps a dispatch pipeline error to its response. Client
// errors (400/404) carry the error's message; anything mapping to 500
// gets a generic diagnostic so handler internals never reach the wire.
func ErrorFrom(err error) *Response {
	status := util.StatusFor(err)

	message := "internal server error"
	if status != http.StatusInternalServerError && err != nil {
		message = err.Error()
	}

	return &Response{
		Status:      status,
		ContentType: ContentTypeJSON,
		Body:        []byte(fmt.Sprintf(`{"error":%s}`, JSONString(message))),
	}
}

// Len returns the number of body bytes.
func (r *Response) Len() int {
	return len(r.Body)
}

// Write serializes the response: status line, Content-Length and
// Content-Type headers, blank line, body.
func (r *Response) Write(w io.Writer) error {
	head := fmt.Sprintf("%s %d %s\r\nContent-Length: %d\r\nContent-Type: %s\r\n\r\n",
		HTTPVersion, r.Status, http.StatusText(r.Status), len(r.Body), r.ContentType)

	if _, err := io.WriteString(w, head); err != nil {
		return err
	}
	if _, err := w.Write(r.Body); err != nil {
		return err
	}

	return nil
}
