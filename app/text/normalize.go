package text

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`(?is)<.*?>`)

// entities are decoded one after another in this order, so "&amp;lt;" ends up as "<".
var entities = [...][2]string{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
}

// Normalize strips markup tags, decodes the five standard HTML entities and
// trims surrounding whitespace. Other entities are left untouched.
func Normalize(raw string) string {
	s := tagPattern.ReplaceAllString(raw, "")
	for _, e := range entities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return strings.TrimSpace(s)
}

// Truncate returns at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Squash collapses every whitespace run into a single space.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
