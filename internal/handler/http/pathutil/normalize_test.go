package pathutil

import "testing"

func TestNormalizePath(t *testing.T) {
	const site = "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	tests := []struct {
		in   string
		want string
	}{
		{"/sites", "/sites"},
		{"/sites/" + site, "/sites/:id"},
		{"/sites/" + site + "/", "/sites/:id"},
		{"/sites/" + site + "/posts", "/sites/:id/posts"},
		{"/sites/" + site + "/posts?status=draft", "/sites/:id/posts"},
		{"/sites/" + site + "/posts/17", "/sites/:id/posts/:postID"},
		{"/sites/" + site + "/posts/17/publish", "/sites/:id/posts/:postID/publish"},
		{"/sites/" + site + "/media", "/sites/:id/media"},
		{"/sites/" + site + "/categories", "/sites/:id/categories"},
		{"/sites/" + site + "/tags", "/sites/:id/tags"},
		{"/images/search?q=cats", "/images/search"},
		{"/media/proxy", "/media/proxy"},
		{"/health", "/health"},
		{"/", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizePath(tt.in); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
