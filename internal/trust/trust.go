// SPDX-License-Identifier: MPL-2.0

package trust

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Rejection reasons. Every RejectedError wraps exactly one of these.
var (
	// ErrInvalidURL is returned when the input does not parse as an absolute URL.
	ErrInvalidURL = errors.New("invalid download URL")
	// ErrUnsupportedScheme is returned for any scheme other than http or https.
	ErrUnsupportedScheme = errors.New("only http and https downloads are supported")
	// ErrMissingHost is returned when the URL has no host component.
	ErrMissingHost = errors.New("download URL has no host")
	// ErrUntrustedHost is returned when the host matches no trusted suffix.
	ErrUntrustedHost = errors.New("download host is not trusted")
)

type (
	// Policy holds the host suffixes a download may come from.
	Policy struct {
		// Suffixes are matched case-insensitively against the end of the
		// hostname, e.g. ".123pan.com".
		Suffixes []string
	}

	// RejectedError reports why a URL was not authorized.
	RejectedError struct {
		// Reason is one of the Err* sentinels above.
		Reason error
		// URL is the rejected input with any userinfo and query removed.
		URL string
	}
)

// DefaultSuffixes returns the download hosts trusted when nothing else is
// configured.
func DefaultSuffixes() []string {
	return []string{".cjjd19.com", ".123pan.com", ".123865.com"}
}

// NewPolicy builds a policy from raw suffixes. Entries are trimmed and
// lowercased; empty entries are dropped.
func NewPolicy(suffixes []string) Policy {
	normalized := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		normalized = append(normalized, s)
	}
	return Policy{Suffixes: normalized}
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	if e.URL == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.URL)
}

// Unwrap returns the rejection reason sentinel.
func (e *RejectedError) Unwrap() error {
	return e.Reason
}

// Authorize parses raw and checks it against the policy. On success the
// parsed URL is returned for the fetcher to use as-is.
func (p Policy) Authorize(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() {
		return nil, &RejectedError{Reason: ErrInvalidURL, URL: safeString(u, raw)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &RejectedError{Reason: ErrUnsupportedScheme, URL: safeString(u, raw)}
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, &RejectedError{Reason: ErrMissingHost, URL: safeString(u, raw)}
	}

	if !p.trusts(host) {
		return nil, &RejectedError{Reason: ErrUntrustedHost, URL: safeString(u, raw)}
	}

	return u, nil
}

// IsTrustedHost reports whether host (without port) matches a suffix.
func (p Policy) IsTrustedHost(host string) bool {
	return p.trusts(strings.ToLower(strings.TrimSpace(host)))
}

func (p Policy) trusts(host string) bool {
	if host == "" {
		return false
	}
	for _, suffix := range p.Suffixes {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix != "" && strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// safeString renders a URL for error messages without credentials or query
// parameters, which may carry signed download tokens.
func safeString(u *url.URL, raw string) string {
	if u == nil {
		return ""
	}
	redacted := *u
	redacted.User = nil
	redacted.RawQuery = ""
	redacted.Fragment = ""
	if s := redacted.String(); s != "" {
		return s
	}
	return raw
}
