package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/middleware"
	"github.com/ini272/open-flair-shiftplan/models"
	"github.com/ini272/open-flair-shiftplan/services"
)

// ListUsers returns all volunteers
func ListUsers(c *fiber.Ctx) error {
	query := database.DB.Order("id")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var users []models.User
	if result := query.Find(&users); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(users)
}

// CreateUser registers a new volunteer
func CreateUser(c *fiber.Ctx) error {
	var input models.UserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Username == "" || input.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and email are required",
		})
	}

	// Check uniqueness
	var existing models.User
	if result := database.DB.Where("username = ? OR email = ?", input.Username, input.Email).First(&existing); result.Error == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Username or email already exists",
		})
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		IsActive: true,
	}

	if result := database.DB.Create(&user); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionUserCreate, nil, "", "Created user: "+user.Username, c.IP())

	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser returns a single volunteer
func GetUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if result := database.DB.First(&user, userID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(user)
}

// UpdateUser updates a volunteer
func UpdateUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if result := database.DB.First(&user, userID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var input models.UserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Username != "" && input.Username != user.Username {
		var existing models.User
		if result := database.DB.Where("username = ? AND id != ?", input.Username, userID).First(&existing); result.Error == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Username already exists",
			})
		}
		user.Username = input.Username
	}
	if input.Email != "" && input.Email != user.Email {
		var existing models.User
		if result := database.DB.Where("email = ? AND id != ?", input.Email, userID).First(&existing); result.Error == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already exists",
			})
		}
		user.Email = input.Email
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if result := database.DB.Save(&user); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionUserUpdate, nil, "", "Updated user: "+user.Username, c.IP())

	return c.JSON(user)
}

// DeleteUser removes a volunteer along with their assignment, opt-out and
// preference records
func DeleteUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if result := database.DB.First(&user, userID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	deletedUsername := user.Username
	database.DB.Exec("DELETE FROM shift_users WHERE user_id = ?", userID)
	database.DB.Where("user_id = ?", userID).Delete(&models.ShiftUserOptOut{})
	database.DB.Where("user_id = ?", userID).Delete(&models.ShiftPreference{})

	if result := database.DB.Delete(&user); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionUserDelete, nil, "", "Deleted user: "+deletedUsername, c.IP())

	return c.SendStatus(fiber.StatusNoContent)
}
