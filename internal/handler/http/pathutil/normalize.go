package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to the template used as a metrics label.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

const siteSeg = `[^/]+`

// Most specific first.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/sites/` + siteSeg + `/posts/\d+/publish$`), Template: "/sites/:id/posts/:postID/publish"},
	{Pattern: regexp.MustCompile(`^/sites/` + siteSeg + `/posts/\d+$`), Template: "/sites/:id/posts/:postID"},
	{Pattern: regexp.MustCompile(`^/sites/` + siteSeg + `/posts$`), Template: "/sites/:id/posts"},
	{Pattern: regexp.MustCompile(`^/sites/` + siteSeg + `/media$`), Template: "/sites/:id/media"},
	{Pattern: regexp.MustCompile(`^/sites/` + siteSeg + `/categories$`), Template: "/sites/:id/categories"},
	{Pattern: regexp.MustCompile(`^/sites/` + siteSeg + `/tags$`), Template: "/sites/:id/tags"},
	{Pattern: regexp.MustCompile(`^/sites/` + siteSeg + `$`), Template: "/sites/:id"},
}

// NormalizePath collapses site and post identifiers so that every request to
// the same route shares one metrics label.
//
//	NormalizePath("/sites/3f2a/posts/12")  // "/sites/:id/posts/:postID"
//	NormalizePath("/images/search?q=cat")  // "/images/search"
//	NormalizePath("/sites/3f2a/")          // "/sites/:id"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
