package entity

import (
	"strings"
	"time"
)

// Site is a WordPress site the user has connected.
// AppPassword is a WordPress application password used for Basic auth.
type Site struct {
	ID          string
	Name        string
	URL         string
	Username    string
	AppPassword string
	CreatedAt   time.Time
}

// Validate checks the site's fields and normalizes its URL.
func (s *Site) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.URL = strings.TrimRight(strings.TrimSpace(s.URL), "/")

	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if len(s.Name) > 255 {
		return &ValidationError{Field: "name", Message: "name must not exceed 255 characters"}
	}
	if err := ValidateURL(s.URL); err != nil {
		return err
	}
	if strings.TrimSpace(s.Username) == "" {
		return &ValidationError{Field: "username", Message: "username is required"}
	}
	if strings.TrimSpace(s.AppPassword) == "" {
		return &ValidationError{Field: "app_password", Message: "application password is required"}
	}
	return nil
}
