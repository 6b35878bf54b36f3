package api

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Mode      string // "none", "api-key" or "jwt"
	APIKey    string // from env API_KEY
	JWTSecret string // from env JWT_SECRET, HS256
}

func isProbePath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

// NewAuthMiddleware returns a Fiber middleware enforcing the configured
// auth mode. API keys arrive in X-API-Key, JWTs as a Bearer token.
func NewAuthMiddleware(cfg AuthConfig, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.Mode == "none" {
			return c.Next()
		}

		// Probes stay reachable for orchestrators and scrapers.
		if isProbePath(c.Path()) {
			return c.Next()
		}

		switch cfg.Mode {
		case "api-key":
			key := c.Get("X-API-Key")
			if key == "" {
				return problemResponse(c, fiber.StatusUnauthorized,
					"missing_api_key", "Unauthorized",
					"X-API-Key header is required")
			}
			if cfg.APIKey == "" || key != cfg.APIKey {
				logger.Warn().
					Str("path", c.Path()).
					Str("method", c.Method()).
					Msg("unauthorized request: invalid API key")
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_api_key", "Unauthorized",
					"Invalid API key")
			}
			return c.Next()

		case "jwt":
			authHeader := c.Get("Authorization")
			if authHeader == "" {
				return problemResponse(c, fiber.StatusUnauthorized,
					"missing_auth", "Unauthorized",
					"Authorization header is required")
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_auth_scheme", "Unauthorized",
					"Authorization header must use Bearer scheme")
			}
			raw := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				logger.Warn().
					Err(err).
					Str("path", c.Path()).
					Str("method", c.Method()).
					Msg("unauthorized request: invalid token")
				return problemResponse(c, fiber.StatusUnauthorized,
					"invalid_token", "Unauthorized",
					"Invalid or expired token")
			}
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if sub, _ := claims["sub"].(string); sub != "" {
					c.Locals("subject", sub)
				}
			}
			return c.Next()

		default:
			return problemResponse(c, fiber.StatusInternalServerError,
				"auth_misconfigured", "Internal Server Error",
				fmt.Sprintf("unknown auth mode %q", cfg.Mode))
		}
	}
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}
