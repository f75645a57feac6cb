package utils

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeHost lowercases a hostname, strips a trailing dot, and converts
// internationalized names to their punycode form so comparisons against
// configured domains are stable.
func NormalizeHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return ""
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return host
	}
	return ascii
}

// HostMatchesDomain reports whether host equals domain or is a subdomain of
// it. Both inputs are normalized before comparison.
func HostMatchesDomain(host, domain string) bool {
	host = NormalizeHost(host)
	domain = NormalizeHost(domain)
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ExpandPath resolves a leading ~ against the current user's home directory
// and makes the result absolute.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
