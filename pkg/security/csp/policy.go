// Package csp builds Content-Security-Policy headers and applies them,
// together with the other hardening headers, to every response.
package csp

import (
	"net/http"
	"slices"
	"strings"
)

// directiveOrder fixes the output order so headers are stable across runs.
var directiveOrder = []string{
	"default-src",
	"img-src",
	"style-src",
	"connect-src",
	"frame-ancestors",
	"base-uri",
	"form-action",
	"sandbox",
	"report-uri",
}

// Builder assembles a policy. It is not safe for concurrent use; build the
// header once and share the string.
type Builder struct {
	directives map[string][]string
	reportOnly bool
}

// NewBuilder returns an empty policy.
func NewBuilder() *Builder {
	return &Builder{directives: make(map[string][]string)}
}

// Directive sets name to sources, replacing any earlier value. Directives
// such as sandbox take no sources.
func (b *Builder) Directive(name string, sources ...string) *Builder {
	b.directives[name] = sources
	return b
}

func (b *Builder) DefaultSrc(sources ...string) *Builder { return b.Directive("default-src", sources...) }
func (b *Builder) ImgSrc(sources ...string) *Builder     { return b.Directive("img-src", sources...) }
func (b *Builder) StyleSrc(sources ...string) *Builder   { return b.Directive("style-src", sources...) }
func (b *Builder) FrameAncestors(sources ...string) *Builder {
	return b.Directive("frame-ancestors", sources...)
}

// ReportOnly switches the header to Content-Security-Policy-Report-Only.
func (b *Builder) ReportOnly(enabled bool) *Builder {
	b.reportOnly = enabled
	return b
}

// Build renders the policy. Known directives come first in a fixed order,
// others follow sorted by name.
func (b *Builder) Build() string {
	var parts []string
	seen := make(map[string]bool, len(b.directives))
	for _, name := range directiveOrder {
		if sources, ok := b.directives[name]; ok {
			parts = append(parts, render(name, sources))
			seen[name] = true
		}
	}
	var extra []string
	for name := range b.directives {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		parts = append(parts, render(name, b.directives[name]))
	}
	return strings.Join(parts, "; ")
}

// HeaderName is the header the policy belongs in.
func (b *Builder) HeaderName() string {
	if b.reportOnly {
		return "Content-Security-Policy-Report-Only"
	}
	return "Content-Security-Policy"
}

func render(name string, sources []string) string {
	if len(sources) == 0 {
		return name
	}
	return name + " " + strings.Join(sources, " ")
}

// APIPolicy forbids everything. JSON responses never load subresources, and
// proxied images render as top-level documents regardless of default-src.
func APIPolicy() *Builder {
	return NewBuilder().
		DefaultSrc("'none'").
		FrameAncestors("'none'").
		Directive("base-uri", "'none'").
		Directive("form-action", "'none'")
}

// Headers sets the policy plus nosniff and a strict referrer policy on every
// response.
func Headers(policy *Builder) func(http.Handler) http.Handler {
	name, value := policy.HeaderName(), policy.Build()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if value != "" {
				h.Set(name, value)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "no-referrer")
			next.ServeHTTP(w, r)
		})
	}
}
