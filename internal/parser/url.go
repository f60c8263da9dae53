package parser

import (
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrMalformedURL is returned for a playlist location without a directory component.
	ErrMalformedURL = errors.New("malformed base url")

	// ErrNoBase is returned when a relative reference must be resolved but the
	// playlist has no origin to resolve it against, as with local files.
	ErrNoBase = errors.New("relative reference without a base url")
)

// IsURL reports whether s is an absolute URL with both a scheme and a host.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// SplitBase returns the directory part of a playlist location, up to and
// including the last "/".
func SplitBase(location string) (string, error) {
	i := strings.LastIndex(location, "/")
	if i < 0 {
		return "", ErrMalformedURL
	}
	return location[:i+1], nil
}

// Resolve returns uri unchanged when it is an absolute URL and base+uri
// otherwise. Root-relative references keep only the scheme and host of base.
func Resolve(base, uri string) (string, error) {
	if IsURL(uri) {
		return uri, nil
	}
	if base == "" {
		return "", ErrNoBase
	}

	if strings.HasPrefix(uri, "/") && !strings.HasPrefix(uri, "//") {
		if b, err := url.Parse(base); err == nil && b.Scheme != "" && b.Host != "" {
			return b.Scheme + "://" + b.Host + uri, nil
		}
	}

	return base + uri, nil
}
