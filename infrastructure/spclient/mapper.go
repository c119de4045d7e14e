package spclient

import (
	"net/url"
	"strings"
)

// joinURL safely joins a base URL with a relative path
func joinURL(base, rel string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	if strings.HasPrefix(rel, "/") {
		u.Path = rel
		return u.String()
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.Path += rel
	return u.String()
}

// escapeODataString doubles single quotes for embedding in an OData literal
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
