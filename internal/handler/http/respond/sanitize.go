package respond

import (
	"regexp"
)

var (
	// bearer and Unsplash-style authorization values
	authHeaderPattern = regexp.MustCompile(`(Bearer|Basic|Client-ID) [A-Za-z0-9._~+/=-]+`)

	// credentials carried in query strings
	queryCredentialPattern = regexp.MustCompile(`([?&](?:key|client_secret|access_token)=)[^&\s"]+`)

	// password inside a DSN or URL userinfo
	dbPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError returns err's message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = authHeaderPattern.ReplaceAllString(msg, "$1 ****")
	msg = queryCredentialPattern.ReplaceAllString(msg, "$1****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
