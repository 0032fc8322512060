// Package auth protects the console API with a static API key.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Header is the request header carrying the API key.
const Header = "X-API-Key"

// Config holds the auth middleware settings.
type Config struct {
	// ApiKey is the expected key, either plain or a bcrypt hash ("$2a$...").
	// An empty key disables the check.
	ApiKey string
}

// IsHashed reports whether key is a bcrypt hash rather than a plain key.
func IsHashed(key string) bool {
	return strings.HasPrefix(key, "$2a$") || strings.HasPrefix(key, "$2b$") || strings.HasPrefix(key, "$2y$")
}

// HashKey returns the bcrypt hash of key, suitable for SERVER_API_KEY.
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func matches(expected, key string) bool {
	if IsHashed(expected) {
		return bcrypt.CompareHashAndPassword([]byte(expected), []byte(key)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(expected)) == 1
}

// New returns the API key middleware.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}
		if key := c.Get(Header); key == "" || !matches(cfg.ApiKey, key) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or missing API key"})
		}
		return c.Next()
	}
}
