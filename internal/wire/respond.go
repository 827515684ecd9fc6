package wire

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// JSON rendering helpers for handlers that assemble small payloads by
// hand. Values passed to JSONObject and JSONArray must already be
// rendered JSON.

// JSONString renders s as a JSON string literal. Control bytes and
// quotes are escaped per JSON rules, not Go string-literal rules, so
// the output is always valid JSON even for hostile input.
func JSONString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// JSONBool renders b as a JSON boolean.
func JSONBool(b bool) string {
	return strconv.FormatBool(b)
}

// JSONInt renders n as a JSON number.
func JSONInt(n int) string {
	return strconv.Itoa(n)
}

// JSONArray renders pre-rendered JSON values as a JSON array.
func JSONArray(values []string) string {
	return "[" + strings.Join(values, ",") + "]"
}

// JSONStringSlice renders a slice of plain strings as a JSON array of
// strings.
func JSONStringSlice(values []string) string {
	rendered := make([]string, len(values))
	for i, v := range values {
		rendered[i] = JSONString(v)
	}
	return JSONArray(rendered)
}

// JSONObject renders a map of pre-rendered JSON values as a JSON
// object. Keys are sorted so the same input always produces the same
// bytes.
func JSONObject(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(JSONString(k))
		b.WriteString(":")
		b.WriteString(fields[k])
	}
	b.WriteString("}")
	return b.String()
}
