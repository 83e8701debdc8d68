package auth

import "strings"

// publicPaths never require a token. The media proxy is loaded by <img> tags,
// which cannot send an Authorization header.
var publicPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
	"/media/proxy",
}

// IsPublicEndpoint reports whether path is served without authentication.
func IsPublicEndpoint(path string) bool {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
