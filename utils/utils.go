package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("invalid url")

// EnsureSchema qualifies a bare domain or protocol-relative URL with https.
func EnsureSchema(rawURL string) string {
	switch {
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return rawURL
	case strings.HasPrefix(rawURL, "//"):
		return "https:" + rawURL
	}
	return "https://" + rawURL
}

// GetDomain returns the host of rawURL with schema, path and query removed.
func GetDomain(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(EnsureSchema(trimmed))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, rawURL, err)
	}
	host := strings.ToLower(u.Host)
	if host == "" || strings.HasPrefix(host, ":") {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidURL, rawURL)
	}
	return host, nil
}

func IsValidURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	// Must have scheme and host
	if u.Scheme == "" || u.Host == "" {
		return false
	}

	// Only allow HTTP and HTTPS
	return u.Scheme == "http" || u.Scheme == "https"
}

func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	// Remove fragment
	u.Fragment = ""
	u.RawFragment = ""

	// Normalize path
	if u.Path == "" && u.Opaque == "" && u.Host != "" {
		u.Path = "/"
	}

	return u.String()
}
