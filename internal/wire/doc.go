// Package wire converts between raw bytes on a TCP connection and
// structured HTTP/1.1 messages.
//
// ParseRequest consumes one request from a connection's read side:
// request line, headers until the blank line, and, when Content-Length
// is present, exactly that many body bytes. Response serializes a
// status, Content-Length, Content-Type and body back to the write
// side. One request per connection; the connection is closed after the
// response is written.
package wire
