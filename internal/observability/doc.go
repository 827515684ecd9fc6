// Package observability provides structured logging and Prometheus
// metrics for the server.
//
// Logging is backed by zap behind a small Logger interface so that
// packages depend on the interface rather than on zap directly. A
// process-wide logger can be installed with SetGlobalLogger and
// retrieved with L().
//
// Metrics own a private Prometheus registry; the promhttp handler for
// that registry is exposed through Metrics.Handler and served on the
// optional admin listener.
package observability
