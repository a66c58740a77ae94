// Package research augments planning context with content fetched from
// URLs the user mentioned. Fetching is SSRF-hardened: HTTPS only, no
// private or loopback targets, resolved IPs re-checked at dial time.
package research

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// Pre-compiled CIDR networks for reserved ranges the stdlib predicates
// do not cover.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// ExtractURLs finds the fetchable URLs mentioned in free text. URLs that
// fail validation are dropped; duplicates are collapsed keeping first
// position. Trailing sentence punctuation is stripped.
func ExtractURLs(text string) []string {
	seen := make(map[string]bool)
	var urls []string

	for _, match := range urlPattern.FindAllString(text, -1) {
		candidate := strings.TrimRight(match, ".,;:!?")
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		if ValidateURL(candidate) == nil {
			urls = append(urls, candidate)
		}
	}
	return urls
}

// ValidateURL validates a URL for security (SSRF prevention).
// It requires HTTPS and blocks localhost, private IPs, and local domains.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed")
	}

	host := parsed.Hostname()

	lowHost := strings.ToLower(host)
	if lowHost == "localhost" || lowHost == "127.0.0.1" || lowHost == "::1" {
		return fmt.Errorf("localhost URLs are not allowed")
	}

	if strings.HasSuffix(lowHost, ".local") || strings.HasSuffix(lowHost, ".internal") {
		return fmt.Errorf("local domain URLs are not allowed")
	}

	if ip := net.ParseIP(host); ip != nil {
		if IsPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not allowed")
		}
	}

	return nil
}

// IsPrivateIP checks if an IP is in private/reserved ranges.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if v4 := ip.To4(); v4 != nil {
		ip = v4
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
	}

	if cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip) {
		return true
	}

	return false
}
