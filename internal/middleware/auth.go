package middleware

import (
	"strings"
	"time"

	"github.com/careerforge/backend/internal/config"
	"github.com/careerforge/backend/internal/database"
	"github.com/careerforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the login handler sets. Session presence
// is detected by the "auth-token" marker in the name, not the exact name, so
// a frontend proxy may prefix it.
const SessionCookieName = "careers-auth-token"

const sessionCookieMarker = "auth-token"

// JWTClaims represents JWT token claims
type JWTClaims struct {
	UserID    uint            `json:"user_id"`
	Email     string          `json:"email"`
	UserType  models.UserType `json:"user_type"`
	CompanyID *string         `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT token
func GenerateToken(user *models.User, cfg *config.Config) (string, error) {
	claims := JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		UserType:  user.UserType,
		CompanyID: user.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.JWTExpireHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "careerforge",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// SessionToken extracts the bearer token from the Authorization header or,
// failing that, from any cookie whose name carries the auth-token marker.
func SessionToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	var token string
	c.Request().Header.VisitAllCookie(func(key, value []byte) {
		if token == "" && strings.Contains(string(key), sessionCookieMarker) {
			token = string(value)
		}
	})
	return token
}

// AuthRequired middleware to protect routes
func AuthRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := SessionToken(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Unauthorized - Please log in",
			})
		}

		// Check if token is blacklisted (user logged out)
		if database.IsTokenBlacklisted(tokenString) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Token has been revoked (logged out)",
			})
		}

		// Parse and validate token
		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid token claims",
			})
		}

		// Check if user still exists and is active
		var user models.User
		if err := database.DB.First(&user, claims.UserID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "User not found",
			})
		}

		if !user.IsActive {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "User account is disabled",
			})
		}

		// Store user info in context
		c.Locals("user", &user)
		c.Locals("userID", claims.UserID)
		c.Locals("userType", claims.UserType)
		c.Locals("sessionToken", tokenString)

		return c.Next()
	}
}

// AdminOnly middleware to restrict to admin users
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userType, ok := c.Locals("userType").(models.UserType)
		if !ok || userType != models.UserTypeAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// GetCurrentUser returns the current user from context
func GetCurrentUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return nil
	}
	return user
}

// IsPublicPath reports whether a path needs no session: careers pages, the
// login surface, health/metrics, and static assets.
func IsPublicPath(path string) bool {
	if path == "/login" || path == "/health" || path == "/metrics" {
		return true
	}
	if strings.HasPrefix(path, "/api/auth/login") {
		return true
	}
	if strings.HasSuffix(path, "/careers") || strings.Contains(path, "/careers/") {
		return true
	}
	for _, ext := range []string{".ico", ".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".css", ".js"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsProtectedPath reports whether a path requires a session: editor and
// preview surfaces, plus the root path.
func IsProtectedPath(path string) bool {
	if strings.Contains(path, "/edit") || strings.Contains(path, "/preview") {
		return true
	}
	return path == "/"
}

// RouteGuard classifies requests as public or protected and redirects
// protected-but-unauthenticated page requests to the login page with a
// redirect parameter pointing back at the original path. API requests get a
// 401 instead; full token verification happens in AuthRequired.
func RouteGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		if IsPublicPath(path) {
			return c.Next()
		}

		if IsProtectedPath(path) && SessionToken(c) == "" {
			if strings.HasPrefix(path, "/api/") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"message": "Unauthorized - Please log in",
				})
			}
			// Path characters are query-safe per RFC 3986; keep the value
			// readable rather than escaping the slashes
			return c.Redirect("/login?redirect="+path, fiber.StatusFound)
		}

		return c.Next()
	}
}
