package utils

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash    = regexp.MustCompile(`-{2,}`)
)

// MakeSlug lowercases s and reduces it to [a-z0-9-]
func MakeSlug(s string) string {
	slug := strings.ToLower(strings.TrimSpace(s))
	slug = strings.Join(strings.Fields(slug), "-")
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = multiDash.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
