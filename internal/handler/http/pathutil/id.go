package pathutil

import (
	"errors"
	"strconv"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when an identifier in the URL path is malformed.
var ErrInvalidID = errors.New("invalid id")

// ParseID parses a positive integer path value such as a post id.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ParseSiteID checks that s is a UUID and returns it in canonical form.
func ParseSiteID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}
