package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

var securityHeaders = map[string]string{
	fiber.HeaderXContentTypeOptions: "nosniff",
	fiber.HeaderXFrameOptions:       "DENY",
	fiber.HeaderReferrerPolicy:      "no-referrer",
}

// SecurityHeaders adds hardening headers to every response. Values a handler
// already set are left alone.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		for k, v := range securityHeaders {
			if len(c.Response().Header.Peek(k)) == 0 {
				c.Set(k, v)
			}
		}
		return err
	}
}

// ClientIP returns the first address in X-Forwarded-For, falling back to the
// peer address of the connection.
func ClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}
