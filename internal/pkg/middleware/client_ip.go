package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WithTrustedProxies returns cfg set up to read the client address from
// header, but only for requests whose direct peer is listed in trusted
// (addresses or CIDR ranges). Requests from any other peer are keyed on the
// socket address, so a forged header cannot pick its own rate limit bucket.
// An empty header or trusted list disables proxy headers entirely.
func WithTrustedProxies(cfg fiber.Config, header string, trusted []string) fiber.Config {
	header = strings.TrimSpace(header)
	cfg.EnableTrustedProxyCheck = true
	if header == "" || len(trusted) == 0 {
		cfg.ProxyHeader = ""
		cfg.TrustedProxies = nil
		return cfg
	}
	cfg.ProxyHeader = header
	cfg.TrustedProxies = trusted
	cfg.EnableIPValidation = true
	return cfg
}

// ClientIP is the address rate limits are keyed on. Proxy headers are only
// honored when the app was configured with WithTrustedProxies and the peer is
// trusted. IPv4-mapped IPv6 addresses are reported as IPv4.
func ClientIP(c *fiber.Ctx) string {
	if ip := strings.TrimSpace(c.IP()); ip != "" {
		return unmapIPv4(ip)
	}
	return "unknown"
}

func unmapIPv4(ip string) string {
	// For ::ffff: IPv4-mapped-IPv6 addresses
	if strings.HasPrefix(ip, "::ffff:") && strings.Contains(ip, ".") {
		return strings.TrimPrefix(ip, "::ffff:")
	}
	return ip
}
