// Package entity defines the core domain entities and validation logic for the application.
// It contains the business objects exchanged with WordPress sites and image
// providers, along with their validation rules and domain-specific errors.
package entity

import "strings"

// Image is a stock image normalized from any provider's payload.
// Optional fields are left at their zero value when the provider omits them.
type Image struct {
	URL             string   `json:"url"`
	FullURL         string   `json:"full_url"`
	Caption         string   `json:"caption"`
	SourceProvider  string   `json:"source_provider"`
	ThumbnailURL    string   `json:"thumbnail_url,omitempty"`
	Link            string   `json:"link"`
	Photographer    string   `json:"photographer,omitempty"`
	PhotographerURL string   `json:"photographer_url,omitempty"`
	Attribution     string   `json:"attribution"`
	Width           int      `json:"width,omitempty"`
	Height          int      `json:"height,omitempty"`
	License         string   `json:"license,omitempty"`
	Tags            []string `json:"tags"`
	ProviderID      string   `json:"provider_id"`
}

// UnknownCreator stands in for a missing photographer or author.
const UnknownCreator = "Unknown"

// CreatorOrUnknown returns the trimmed name, or UnknownCreator when it is blank.
func CreatorOrUnknown(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return UnknownCreator
	}
	return name
}

// UniqueTags trims, drops empties and de-duplicates tags, keeping first-seen order.
func UniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
