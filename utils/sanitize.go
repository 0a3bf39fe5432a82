package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeString strips all HTML from user-supplied text
func SanitizeString(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

// SanitizeJSON walks a decoded JSON value and sanitizes every string in it,
// map keys included.
func SanitizeJSON(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		return SanitizeString(val)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[SanitizeString(k)] = SanitizeJSON(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = SanitizeJSON(item)
		}
		return out
	default:
		return val
	}
}
