package utils

import (
	"errors"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var errNoHost = errors.New("url has no host")

// HostOf returns the normalized host of a URL. A missing scheme is read as
// https.
func HostOf(raw string) (string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	host := NormalizeHost(parsed.Hostname())
	if host == "" {
		return "", errNoHost
	}
	return host, nil
}

// NormalizeHost lowercases a host, strips a trailing dot and converts
// internationalized names to their ASCII form.
func NormalizeHost(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		return ascii
	}
	return host
}

// HostSet builds a lookup set of normalized hosts.
func HostSet(hosts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(hosts))
	for _, host := range hosts {
		host = NormalizeHost(strings.TrimSpace(host))
		if host != "" {
			set[host] = struct{}{}
		}
	}
	return set
}

// HostAllowed reports whether host or one of its parent domains is in the
// allowlist. An empty allowlist allows every host.
func HostAllowed(host string, allowlist map[string]struct{}) bool {
	if len(allowlist) == 0 {
		return true
	}
	host = NormalizeHost(host)
	for host != "" {
		if _, ok := allowlist[host]; ok {
			return true
		}
		dot := strings.IndexByte(host, '.')
		if dot < 0 {
			break
		}
		host = host[dot+1:]
	}
	return false
}
