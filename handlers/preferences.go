package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ini272/open-flair-shiftplan/config"
	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/models"
	"github.com/ini272/open-flair-shiftplan/services"
)

// SetPreference records whether a user can work a shift
func SetPreference(c *fiber.Ctx) error {
	var input models.PreferenceInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := services.SetPreference(database.DB, input.UserID, input.ShiftID, input.CanWork); err != nil {
		return assignmentError(c, err)
	}

	return c.JSON(models.ShiftPreference{
		UserID:  input.UserID,
		ShiftID: input.ShiftID,
		CanWork: input.CanWork,
	})
}

// GetUserPreferences returns all preferences a user has recorded
func GetUserPreferences(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	prefs, err := services.UserPreferences(database.DB, uint(userID))
	if err != nil {
		return assignmentError(c, err)
	}

	return c.JSON(prefs)
}

// GetUsersForShift returns the IDs of users who can (or cannot) work a shift
func GetUsersForShift(c *fiber.Ctx) error {
	shiftID, err := c.ParamsInt("shiftID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	canWork := c.QueryBool("can_work", true)
	userIDs, err := services.UsersForShift(database.DB, uint(shiftID), canWork)
	if err != nil {
		return assignmentError(c, err)
	}

	return c.JSON(userIDs)
}

// GeneratePreferencePlan runs the older preference-driven plan path
func GeneratePreferencePlan(c *fiber.Ctx) error {
	cfg := config.GetConfig()

	planner := services.NewPlanner(database.DB,
		services.WithDefaultCapacity(cfg.DefaultShiftCapacity),
		services.WithLogger(PlannerLogger),
	)

	result, err := planner.GeneratePreferencePlan()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Plan generation failed",
		})
	}

	return c.JSON(result)
}
