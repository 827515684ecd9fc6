// Package router implements the route table, the path matcher, and
// the parameter binder.
//
// A pattern is an ordered sequence of /-separated segments; a segment
// wrapped in braces, e.g. /user/{id}, is a named capture that matches
// any non-empty segment and records its value. All other segments are
// literals compared case-sensitively. Matching requires an identical
// segment count after trimming one trailing slash from both pattern
// and path; there is no prefix matching.
//
// Routes are tried in registration order and the first full match
// wins. Static segments do not outrank captures through any
// specificity score: callers register more specific routes first when
// patterns overlap.
//
// Register is startup-only. Once serving begins the table is
// immutable, so concurrent lookups from the worker pool need no
// locking.
package router
