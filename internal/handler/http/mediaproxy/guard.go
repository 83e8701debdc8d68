package mediaproxy

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	"wpdesk/internal/domain/entity"
)

// ErrBlockedHost is returned for URLs that point into a private network.
var ErrBlockedHost = errors.New("url must not point to a private or loopback address")

// Resolver looks up the addresses of a host.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

var blockedPrefixes = []string{"127.", "10.", "172.", "192.168."}

// checkURL parses raw and rejects anything but a public http(s) URL.
// Hostnames are matched literally first and then resolved; a single private
// address among the results is enough to reject.
func checkURL(ctx context.Context, resolver Resolver, raw string) (*url.URL, error) {
	if raw == "" {
		return nil, &entity.ValidationError{Field: "url", Message: "url is required"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &entity.ValidationError{Field: "url", Message: "url is invalid"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &entity.ValidationError{Field: "url", Message: "url must use http or https"}
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	if host == "" {
		return nil, &entity.ValidationError{Field: "url", Message: "url must have a host"}
	}
	if blockedLiteral(host) {
		return nil, ErrBlockedHost
	}

	if ip := net.ParseIP(host); ip != nil {
		if entity.IsPrivateIP(ip) {
			return nil, ErrBlockedHost
		}
		return u, nil
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		return nil, &entity.ValidationError{Field: "url", Message: "url host cannot be resolved"}
	}
	for _, a := range addrs {
		if entity.IsPrivateIP(a.IP) {
			return nil, ErrBlockedHost
		}
	}
	return u, nil
}

func blockedLiteral(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	for _, p := range blockedPrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}
	return false
}

// dialControl refuses connections to private addresses, which also covers
// hosts whose DNS answer changed between the check and the dial.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); ip == nil || entity.IsPrivateIP(ip) {
		return ErrBlockedHost
	}
	return nil
}
