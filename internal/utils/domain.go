package utils

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var hostnameRegex = regexp.MustCompile(`^([a-z0-9]([a-z0-9\-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

// NormalizeDomain lower-cases a hostname, strips the trailing dot and
// converts internationalized names to their ASCII (punycode) form.
func NormalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.ToLower(domain)
	domain = strings.TrimSuffix(domain, ".")
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil {
		return ascii
	}
	return domain
}

// IsValidHostname reports whether the normalized hostname is a usable FQDN.
func IsValidHostname(domain string) bool {
	if domain == "" || len(domain) > 253 {
		return false
	}
	if strings.Contains(domain, "*") {
		return false
	}
	return hostnameRegex.MatchString(domain)
}

// IsApexDomain classifies a hostname as a registrable root by label count.
// "example.com" is apex, "shop.example.com" is a subdomain.
func IsApexDomain(domain string) bool {
	return len(strings.Split(domain, ".")) == 2
}
