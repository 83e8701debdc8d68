// Package site manages the WordPress sites connected to the editor.
package site

import "errors"

// Sentinel errors for site use case operations.
var (
	// ErrSiteNotFound indicates that no site has the requested id.
	ErrSiteNotFound = errors.New("site not found")

	// ErrDuplicateSite indicates that the same user on the same site URL is already connected.
	ErrDuplicateSite = errors.New("site with this URL and username already exists")
)
