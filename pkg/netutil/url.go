package netutil

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ValidateHttpUrl validates a URL for an HTTP scheme and returns the parsed
// value. Hosts may be domain names or IP addresses, with an optional port.
func ValidateHttpUrl(value string, requireSecureConnection bool) (*url.URL, error) {
	parsed, err := url.Parse(value)
	if err != nil {
		return nil, err
	}

	if requireSecureConnection && parsed.Scheme != "https" {
		return nil, errors.New("url scheme must be https")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("url scheme must be http or https")
	}

	host := parsed.Hostname()
	if len(host) == 0 {
		return nil, errors.New("host component missing")
	}

	if net.ParseIP(host) == nil {
		if err := ValidateDomainName(host); err != nil {
			return nil, errors.Wrap(err, "host is not a valid domain name")
		}
	}

	return parsed, nil
}

// TrimTrailingSlashes removes every trailing slash from a base URL.
func TrimTrailingSlashes(value string) string {
	return strings.TrimRight(value, "/")
}

// JoinBaseUrl joins a base URL, with its trailing slashes stripped, and a path
// relative to it.
func JoinBaseUrl(base, path string) string {
	return TrimTrailingSlashes(base) + "/" + strings.TrimLeft(path, "/")
}
