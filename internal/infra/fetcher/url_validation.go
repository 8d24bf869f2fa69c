package fetcher

import (
	"fmt"
	"net"
	"net/url"
)

// validateURL checks a URL before any request is made: only http/https
// schemes, a non-empty hostname, and (when denyPrivateIPs is set) no
// resolution to private, loopback, or link-local addresses. The DNS check is
// what keeps attacker-supplied entry URLs from reaching the internal network.
func validateURL(urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}

	if !denyPrivateIPs {
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: hostname %q resolves to %s", ErrPrivateIP, hostname, ip)
		}
	}
	return nil
}

// isPrivateIP reports whether ip is loopback, private (RFC 1918 / RFC 4193),
// or link-local, for both IPv4 and IPv6.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
