// Package urlutil provides URL normalization and domain helpers shared by
// the scraping client and the analysis pipeline.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

var dangerousSchemes = []string{"javascript", "data", "file", "ftp"}

// Normalize validates and standardizes a URL. A missing scheme defaults to
// https. URLs with a dangerous scheme (javascript:, data:, file:, ftp:) or
// no host are rejected. The result is idempotent under Normalize.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty url")
	}

	lower := strings.ToLower(raw)
	for _, scheme := range dangerousSchemes {
		if strings.HasPrefix(lower, scheme+":") {
			return "", fmt.Errorf("dangerous url scheme %q", scheme)
		}
	}

	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url has no host")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	u.Host = strings.ToLower(u.Host)

	return u.String(), nil
}

// IsValid reports whether raw is an absolute http(s) URL with a host.
func IsValid(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Host != "" && (u.Scheme == "http" || u.Scheme == "https")
}

// Domain extracts the lowercase host from a URL, or "" on failure.
func Domain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// RegistrableDomain strips a leading www. so that www.acme.com and acme.com
// compare equal.
func RegistrableDomain(raw string) string {
	return strings.TrimPrefix(Domain(raw), "www.")
}

// SameDomain reports whether two URLs share a registrable domain.
func SameDomain(a, b string) bool {
	da := RegistrableDomain(a)
	db := RegistrableDomain(b)
	if da == "" || db == "" {
		return false
	}
	return da == db
}

// Origin returns scheme://host for a URL, or "" on failure.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

// DedupeKey produces the comparison form used when deduplicating discovered
// URLs: lowercase, trailing slash trimmed, query and fragment stripped.
func DedupeKey(raw string) string {
	key := strings.ToLower(raw)
	if i := strings.IndexByte(key, '#'); i >= 0 {
		key = key[:i]
	}
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	return strings.TrimRight(key, "/")
}
