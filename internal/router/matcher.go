package router

import (
	"strings"

	"github.com/vyrodovalexey/minapi/internal/util"
)

// segment is one element of a parsed pattern: either a literal value
// or a named capture.
type segment struct {
	value     string
	isCapture bool
	name      string
}

// parsePattern splits a pattern string into segments and validates
// its capture declarations.
func parsePattern(pattern string) ([]segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, util.NewConfigError(pattern, "pattern must start with /")
	}

	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			name := part[1 : len(part)-1]
			if name == "" {
				return nil, util.NewConfigError(pattern, "capture segment with empty name")
			}
			if seen[name] {
				return nil, util.NewConfigError(pattern, "duplicate capture name "+name)
			}
			seen[name] = true
			segments = append(segments, segment{value: part, isCapture: true, name: name})
			continue
		}
		segments = append(segments, segment{value: part})
	}

	return segments, nil
}

// splitPath splits a pattern or request path into segments, trimming
// one trailing slash first. "/" yields no segments.
func splitPath(path string) []string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// matchSegments compares a request path against a parsed pattern.
// Segment counts must be identical; a literal must match exactly and
// a capture matches any non-empty value, recording it under its name.
func matchSegments(segments []segment, path string) (PathParams, bool) {
	parts := splitPath(path)
	if len(parts) != len(segments) {
		return nil, false
	}

	var params PathParams
	for i, seg := range segments {
		if seg.isCapture {
			if parts[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(PathParams, len(segments))
			}
			params[seg.name] = parts[i]
			continue
		}
		if parts[i] != seg.value {
			return nil, false
		}
	}

	return params, true
}

// structuralKey renders a (method, pattern) pair for duplicate
// detection: literals compare by value, captures compare as wildcards.
func structuralKey(method string, segments []segment) string {
	var b strings.Builder
	b.WriteString(method)
	for _, seg := range segments {
		b.WriteString("/")
		if seg.isCapture {
			b.WriteString("{}")
		} else {
			b.WriteString(seg.value)
		}
	}
	return b.String()
}
