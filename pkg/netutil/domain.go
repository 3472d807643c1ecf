package netutil

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

const (
	maxDomainNameSize  = 253
	maxDomainLabelSize = 63
)

// ToASCIIDomain validates a host name, possibly internationalized, and
// returns its ASCII form. A single trailing dot is accepted and dropped.
func ToASCIIDomain(value string) (string, error) {
	value = strings.TrimSuffix(value, ".")
	if len(value) == 0 {
		return "", errors.New("domain name is empty")
	}

	ascii, err := idna.Registration.ToASCII(value)
	if err != nil {
		return "", errors.Wrap(err, "domain name is invalid")
	}

	if len(ascii) > maxDomainNameSize {
		return "", errors.New("domain name length exceeds limit")
	}
	for _, label := range strings.Split(ascii, ".") {
		if len(label) > maxDomainLabelSize {
			return "", errors.Errorf("domain label %q exceeds limit", label)
		}
	}
	return ascii, nil
}

// ValidateDomainName validates value as a domain name.
func ValidateDomainName(value string) error {
	_, err := ToASCIIDomain(value)
	return err
}
