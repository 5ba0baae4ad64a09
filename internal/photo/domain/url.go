package domain

import (
	"net/url"
	"regexp"
	"strings"
)

var absoluteURL = regexp.MustCompile(`^https?://`)

// ResolveURL returns the URL to display for a stored photo reference.
// Stored values stay relative; only display joins them to the API base.
func ResolveURL(apiBase, stored string) string {
	if absoluteURL.MatchString(stored) {
		return stored
	}
	base := strings.TrimRight(apiBase, "/")
	if stored == "" {
		return base
	}
	if !strings.HasPrefix(stored, "/") {
		stored = "/" + stored
	}
	return base + stored
}

// FilenameFromURL returns the last path segment of a relative or absolute
// URL, or "" when there is none.
func FilenameFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return p
}
