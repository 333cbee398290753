// Package urlutil turns raw user input into absolute URLs suitable for fetching.
package urlutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// DefaultScheme is prepended to input that does not start with http:// or https://.
const DefaultScheme = "http://"

// Normalize converts raw input into an absolute http(s) URL.
// Input without an http:// or https:// prefix (case-insensitive) gets
// DefaultScheme prepended before parsing. Normalization includes:
// - Lowercasing the scheme and host
// - Converting internationalized hostnames to their ASCII (punycode) form
// - Stripping fragments (#section), which are never sent on the wire
//
// Returns an error carrying the parser's message if the result is not an
// absolute URL with a non-empty host.
func Normalize(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("empty URL")
	}

	candidate := raw
	if !HasHTTPScheme(raw) {
		candidate = DefaultScheme + raw
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("malformed URL: %w", urlErr.Err)
		}
		return nil, fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Hostname() == "" {
		return nil, errors.New("malformed URL: missing host")
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)

	host, err := asciiHost(parsed)
	if err != nil {
		return nil, fmt.Errorf("malformed URL: %w", err)
	}
	parsed.Host = host

	parsed.Fragment = ""
	parsed.RawFragment = ""

	return parsed, nil
}

// HasHTTPScheme reports whether raw starts with http:// or https://, ignoring case.
func HasHTTPScheme(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// asciiHost returns the lowercased host (with port, if any) of u, converting
// non-ASCII hostnames through IDNA lookup rules.
func asciiHost(u *url.URL) (string, error) {
	hostname := strings.ToLower(u.Hostname())
	port := u.Port()

	if !isASCII(hostname) {
		converted, err := idna.Lookup.ToASCII(hostname)
		if err != nil {
			return "", fmt.Errorf("invalid international host %q: %w", hostname, err)
		}
		hostname = converted
	}

	if port != "" {
		return net.JoinHostPort(hostname, port), nil
	}
	if strings.Contains(hostname, ":") {
		// IPv6 literal
		return "[" + hostname + "]", nil
	}
	return hostname, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
