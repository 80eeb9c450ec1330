package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ini272/open-flair-shiftplan/config"
	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/middleware"
	"github.com/ini272/open-flair-shiftplan/models"
	"github.com/ini272/open-flair-shiftplan/services"
)

type SetupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string               `json:"token"`
	Admin models.AdminResponse `json:"admin"`
}

// CheckSetup returns whether the initial setup has been completed
func CheckSetup(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"setup_complete": database.IsSetupComplete(),
	})
}

// Setup creates the initial admin account
func Setup(c *fiber.Ctx) error {
	// Check if setup already complete
	if database.IsSetupComplete() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Setup already complete",
		})
	}

	var req SetupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Validate input
	if len(req.Username) < 3 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username must be at least 3 characters",
		})
	}
	if len(req.Password) < 8 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Password must be at least 8 characters",
		})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	admin := models.Admin{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
	}

	if result := database.DB.Create(&admin); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create admin",
		})
	}

	// Generate token
	token, err := generateToken(&admin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token: token,
		Admin: admin.ToResponse(),
	})
}

// Login authenticates an admin and returns a JWT token
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Find admin
	var admin models.Admin
	if result := database.DB.Where("username = ?", req.Username).First(&admin); result.Error != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	// Generate token
	token, err := generateToken(&admin)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	// Log successful login
	services.LogAudit(admin.Username, models.AuditActionLogin, nil, "", "", c.IP())

	return c.JSON(AuthResponse{
		Token: token,
		Admin: admin.ToResponse(),
	})
}

// CreateAccessToken creates a new shared crew token (admin only)
func CreateAccessToken(c *fiber.Ctx) error {
	var input models.TokenInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	token := models.AccessToken{Name: input.Name, IsActive: true}
	if input.ExpiresInDays != nil {
		expiresAt := time.Now().AddDate(0, 0, *input.ExpiresInDays)
		token.ExpiresAt = &expiresAt
	}

	if result := database.DB.Create(&token); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create token",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionTokenCreate, nil, "", "Created token: "+token.Name, c.IP())

	return c.Status(fiber.StatusCreated).JSON(token)
}

// ListAccessTokens returns all active tokens (admin only)
func ListAccessTokens(c *fiber.Ctx) error {
	var tokens []models.AccessToken
	if result := database.DB.Where("is_active = ?", true).Order("created_at DESC").Find(&tokens); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch tokens",
		})
	}

	return c.JSON(tokens)
}

// InvalidateAccessToken deactivates a token (admin only)
func InvalidateAccessToken(c *fiber.Ctx) error {
	tokenID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid token ID",
		})
	}

	var token models.AccessToken
	if result := database.DB.First(&token, tokenID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Token not found",
		})
	}

	if result := database.DB.Model(&token).Update("is_active", false); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to invalidate token",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionTokenInvalidate, nil, "", "Invalidated token: "+token.Name, c.IP())

	return c.SendStatus(fiber.StatusNoContent)
}

// LoginWithToken validates a crew token and sets the auth cookie
func LoginWithToken(c *fiber.Ctx) error {
	var token models.AccessToken
	if result := database.DB.Where("token = ?", c.Params("token")).First(&token); result.Error != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}
	if !token.IsValid() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token.Token,
		HTTPOnly: true,
		Path:     "/",
		MaxAge:   3600 * 24 * 30,
	})

	services.LogAudit("token:"+token.Name, models.AuditActionTokenLogin, nil, "", "", c.IP())

	return c.JSON(fiber.Map{"message": "Login successful"})
}

// Logout clears the token cookie
func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:    "access_token",
		Value:   "",
		Path:    "/",
		Expires: time.Now().Add(-time.Hour),
	})
	return c.JSON(fiber.Map{"message": "Logout successful"})
}

// CheckAuth reports whether the caller holds a valid token cookie
func CheckAuth(c *fiber.Ctx) error {
	cookie := c.Cookies("access_token")
	if cookie == "" {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	var token models.AccessToken
	if result := database.DB.Where("token = ?", cookie).First(&token); result.Error != nil {
		return c.JSON(fiber.Map{"authenticated": false})
	}

	return c.JSON(fiber.Map{"authenticated": token.IsValid()})
}

func generateToken(admin *models.Admin) (string, error) {
	cfg := config.GetConfig()

	claims := middleware.Claims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.SessionDurationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}
