// Package server accepts TCP connections and services one HTTP/1.1
// request per connection through a fixed worker pool.
//
// Each accepted connection is handed to a worker, which runs the
// whole pipeline for it end to end: parse, match, bind, invoke,
// serialize, write, close. Workers share nothing mutable during
// request handling except the route table, which is read-only after
// startup, so no synchronization is needed beyond the channel that
// hands connections to workers. A stalled client blocks only the
// worker servicing it, bounded by the configured read and write
// deadlines; no retries occur anywhere in the pipeline.
package server
