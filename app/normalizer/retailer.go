package normalizer

import (
	"net/url"
	"strings"
)

// UnknownRetailer is stored when a URL has no usable host.
const UnknownRetailer = "unknown"

// DeriveRetailer returns the URL's host without a leading "www.".
func DeriveRetailer(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return UnknownRetailer
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return UnknownRetailer
	}
	return host
}
