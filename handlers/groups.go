package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ini272/open-flair-shiftplan/config"
	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/middleware"
	"github.com/ini272/open-flair-shiftplan/models"
	"github.com/ini272/open-flair-shiftplan/services"
)

// ListGroups returns all groups
func ListGroups(c *fiber.Ctx) error {
	query := database.DB.Order("name")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var groups []models.Group
	if result := query.Find(&groups); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch groups",
		})
	}

	return c.JSON(groups)
}

// CreateGroup creates a new group
func CreateGroup(c *fiber.Ctx) error {
	var input models.GroupInput
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

	var existing models.Group
	if result := database.DB.Where("name = ?", input.Name).First(&existing); result.Error == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Group name already exists",
		})
	}

	group := models.Group{
		Name:     input.Name,
		IsActive: true,
	}

	if result := database.DB.Create(&group); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create group",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionGroupCreate, nil, "", "Created group: "+group.Name, c.IP())

	return c.Status(fiber.StatusCreated).JSON(group)
}

// GetGroup returns a group with its members
func GetGroup(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	var group models.Group
	if result := database.DB.Preload("Users").First(&group, groupID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Group not found",
		})
	}

	return c.JSON(group)
}

// UpdateGroup updates a group
func UpdateGroup(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	var group models.Group
	if result := database.DB.First(&group, groupID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Group not found",
		})
	}

	var input models.GroupInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Name != "" && input.Name != group.Name {
		var existing models.Group
		if result := database.DB.Where("name = ? AND id != ?", input.Name, groupID).First(&existing); result.Error == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Group name already exists",
			})
		}
		group.Name = input.Name
	}
	if input.IsActive != nil {
		group.IsActive = *input.IsActive
	}

	if result := database.DB.Save(&group); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update group",
		})
	}

	return c.JSON(group)
}

// DeleteGroup deletes a group. Members are released (group_id unset), not
// deleted; the group's opt-out and shift associations are cleaned up.
func DeleteGroup(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}

	var group models.Group
	if result := database.DB.First(&group, groupID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Group not found",
		})
	}

	database.DB.Model(&models.User{}).Where("group_id = ?", groupID).Update("group_id", nil)
	database.DB.Where("group_id = ?", groupID).Delete(&models.ShiftGroupOptOut{})
	database.DB.Exec("DELETE FROM shift_groups WHERE group_id = ?", groupID)

	if result := database.DB.Delete(&group); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete group",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionGroupDelete, nil, "", "Deleted group: "+group.Name, c.IP())

	return c.SendStatus(fiber.StatusNoContent)
}

// JoinGroup adds a user to a group
func JoinGroup(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid group ID",
		})
	}
	userID, err := c.ParamsInt("userID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	cfg := config.GetConfig()
	if err := services.JoinGroup(database.DB, uint(groupID), uint(userID), cfg.MaxGroupSize); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group or user not found"})
		case errors.Is(err, services.ErrAlreadyInGroup):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User already belongs to a group"})
		case errors.Is(err, services.ErrGroupFull):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Group is full"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add user to group"})
		}
	}

	return c.JSON(fiber.Map{"message": "User added to group successfully"})
}

// LeaveGroup removes a user from their group
func LeaveGroup(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	if err := services.LeaveGroup(database.DB, uint(userID)); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		case errors.Is(err, services.ErrNotInGroup):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User is not in a group"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove user from group"})
		}
	}

	var user models.User
	if result := database.DB.First(&user, userID); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch user",
		})
	}
	return c.JSON(user)
}
