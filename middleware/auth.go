package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ini272/open-flair-shiftplan/config"
	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/models"
)

type Claims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// parseClaims extracts and validates JWT claims from the Authorization header
func parseClaims(c *fiber.Ctx) (*Claims, error) {
	cfg := config.GetConfig()

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	token, err := jwt.ParseWithClaims(parts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	return claims, nil
}

// validAccessToken checks the shared crew token against the database.
func validAccessToken(token string) (*models.AccessToken, bool) {
	var t models.AccessToken
	if result := database.DB.Where("token = ?", token).First(&t); result.Error != nil {
		return nil, false
	}
	if !t.IsValid() {
		return nil, false
	}
	return &t, true
}

// AuthRequired accepts either an admin JWT (Authorization header) or the
// shared access-token cookie set by the token login endpoint.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") != "" {
			claims, err := parseClaims(c)
			if err != nil {
				e := err.(*fiber.Error)
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}

			c.Locals("adminID", claims.AdminID)
			c.Locals("actor", claims.Username)
			c.Locals("isAdmin", true)
			return c.Next()
		}

		if cookie := c.Cookies("access_token"); cookie != "" {
			if t, ok := validAccessToken(cookie); ok {
				c.Locals("actor", "token:"+t.Name)
				c.Locals("isAdmin", false)
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}
}

// AdminRequired middleware checks that the caller logged in with an admin account
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsAdmin(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

func GetAdminID(c *fiber.Ctx) uint {
	if adminID, ok := c.Locals("adminID").(uint); ok {
		return adminID
	}
	return 0
}

// GetActor returns the admin username or the token name for audit entries.
func GetActor(c *fiber.Ctx) string {
	if actor, ok := c.Locals("actor").(string); ok {
		return actor
	}
	return ""
}

func IsAdmin(c *fiber.Ctx) bool {
	if isAdmin, ok := c.Locals("isAdmin").(bool); ok {
		return isAdmin
	}
	return false
}
