package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ini272/open-flair-shiftplan/config"
	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/middleware"
	"github.com/ini272/open-flair-shiftplan/models"
	"github.com/ini272/open-flair-shiftplan/services"
)

// PlannerLogger is set at startup; the plan endpoints hand it to the engine.
var PlannerLogger = zap.NewNop()

// ListShifts returns shifts, optionally filtered by overlap with a time
// range, by assigned user, or by assigned group
func ListShifts(c *fiber.Ctx) error {
	var shifts []models.Shift

	startStr, endStr := c.Query("start_time"), c.Query("end_time")
	if startStr != "" && endStr != "" {
		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start_time"})
		}
		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end_time"})
		}

		// Overlap semantics: any shift that intersects the range at all.
		if result := database.DB.Where("is_active = ? AND end_time > ? AND start_time < ?", true, start, end).
			Order("start_time").Find(&shifts); result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch shifts"})
		}
		return c.JSON(shifts)
	}

	if userID := c.QueryInt("user_id"); userID > 0 {
		if result := database.DB.Joins("JOIN shift_users ON shift_users.shift_id = shifts.id").
			Where("shift_users.user_id = ? AND shifts.is_active = ?", userID, true).
			Order("start_time").Find(&shifts); result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch shifts"})
		}
		return c.JSON(shifts)
	}

	if groupID := c.QueryInt("group_id"); groupID > 0 {
		if result := database.DB.Joins("JOIN shift_groups ON shift_groups.shift_id = shifts.id").
			Where("shift_groups.group_id = ? AND shifts.is_active = ?", groupID, true).
			Order("start_time").Find(&shifts); result.Error != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch shifts"})
		}
		return c.JSON(shifts)
	}

	if result := database.DB.Where("is_active = ?", true).Order("start_time").Find(&shifts); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch shifts"})
	}
	return c.JSON(shifts)
}

// CreateShift creates a new shift
func CreateShift(c *fiber.Ctx) error {
	var input models.ShiftInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}
	if input.StartTime == nil || input.EndTime == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Start and end time are required",
		})
	}
	if !input.StartTime.Before(*input.EndTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Start time must be before end time",
		})
	}
	if input.Capacity != nil && *input.Capacity <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Capacity must be greater than zero",
		})
	}

	shift := models.Shift{
		Title:       input.Title,
		Description: input.Description,
		StartTime:   *input.StartTime,
		EndTime:     *input.EndTime,
		Capacity:    input.Capacity,
		IsActive:    true,
	}

	if result := database.DB.Create(&shift); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create shift",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionShiftCreate, &shift.ID, shift.Title, "", c.IP())

	return c.Status(fiber.StatusCreated).JSON(shift)
}

// GetShift returns a shift including its assigned users and groups
func GetShift(c *fiber.Ctx) error {
	shiftID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid shift ID",
		})
	}

	var shift models.Shift
	if result := database.DB.Preload("Users").Preload("Groups").First(&shift, shiftID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Shift not found",
		})
	}

	return c.JSON(shift)
}

// UpdateShift updates a shift
func UpdateShift(c *fiber.Ctx) error {
	shiftID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid shift ID",
		})
	}

	var shift models.Shift
	if result := database.DB.First(&shift, shiftID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Shift not found",
		})
	}

	var input models.ShiftInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if input.Title != "" {
		shift.Title = input.Title
	}
	if input.Description != "" {
		shift.Description = input.Description
	}
	if input.StartTime != nil {
		shift.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		shift.EndTime = *input.EndTime
	}
	if !shift.StartTime.Before(shift.EndTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Start time must be before end time",
		})
	}
	if input.Capacity != nil {
		if *input.Capacity <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Capacity must be greater than zero",
			})
		}
		shift.Capacity = input.Capacity
	}
	if input.IsActive != nil {
		shift.IsActive = *input.IsActive
	}

	if result := database.DB.Save(&shift); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update shift",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionShiftUpdate, &shift.ID, shift.Title, "", c.IP())

	return c.JSON(shift)
}

// DeleteShift removes a shift along with its association, opt-out and
// preference records
func DeleteShift(c *fiber.Ctx) error {
	shiftID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid shift ID",
		})
	}

	var shift models.Shift
	if result := database.DB.First(&shift, shiftID); result.Error != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Shift not found",
		})
	}

	database.DB.Exec("DELETE FROM shift_users WHERE shift_id = ?", shiftID)
	database.DB.Exec("DELETE FROM shift_groups WHERE shift_id = ?", shiftID)
	database.DB.Where("shift_id = ?", shiftID).Delete(&models.ShiftUserOptOut{})
	database.DB.Where("shift_id = ?", shiftID).Delete(&models.ShiftGroupOptOut{})
	database.DB.Where("shift_id = ?", shiftID).Delete(&models.ShiftPreference{})

	if result := database.DB.Delete(&shift); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete shift",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionShiftDelete, &shift.ID, shift.Title, "", c.IP())

	return c.SendStatus(fiber.StatusNoContent)
}

// AddUserToShift assigns a user to a shift
func AddUserToShift(c *fiber.Ctx) error {
	var input models.ShiftUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := services.AddUserToShift(database.DB, input.ShiftID, input.UserID); err != nil {
		return assignmentError(c, err)
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionShiftAssign, &input.ShiftID, "",
		fmt.Sprintf("Assigned user %d", input.UserID), c.IP())

	return c.JSON(fiber.Map{"message": "User added to shift successfully"})
}

// AddGroupToShift assigns a group and all its members to a shift
func AddGroupToShift(c *fiber.Ctx) error {
	var input models.ShiftGroupInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := services.AddGroupToShift(database.DB, input.ShiftID, input.GroupID); err != nil {
		if errors.Is(err, services.ErrCapacityExceeded) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Shift does not have enough capacity for all users in the group",
			})
		}
		return assignmentError(c, err)
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionShiftAssign, &input.ShiftID, "",
		fmt.Sprintf("Assigned group %d", input.GroupID), c.IP())

	return c.JSON(fiber.Map{"message": "Group added to shift successfully"})
}

// RemoveUserFromShift unassigns a user from a shift
func RemoveUserFromShift(c *fiber.Ctx) error {
	shiftID, err1 := c.ParamsInt("shiftID")
	userID, err2 := c.ParamsInt("userID")
	if err1 != nil || err2 != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid shift or user ID",
		})
	}

	if err := services.RemoveUserFromShift(database.DB, uint(shiftID), uint(userID)); err != nil {
		return assignmentError(c, err)
	}

	sid := uint(shiftID)
	services.LogAudit(middleware.GetActor(c), models.AuditActionShiftUnassign, &sid, "",
		fmt.Sprintf("Unassigned user %d", userID), c.IP())

	return c.JSON(fiber.Map{"message": "User removed from shift successfully"})
}

// RemoveGroupFromShift removes the group association only; members stay
// assigned individually
func RemoveGroupFromShift(c *fiber.Ctx) error {
	shiftID, err1 := c.ParamsInt("shiftID")
	groupID, err2 := c.ParamsInt("groupID")
	if err1 != nil || err2 != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid shift or group ID",
		})
	}

	if err := services.RemoveGroupFromShift(database.DB, uint(shiftID), uint(groupID)); err != nil {
		return assignmentError(c, err)
	}

	sid := uint(shiftID)
	services.LogAudit(middleware.GetActor(c), models.AuditActionShiftUnassign, &sid, "",
		fmt.Sprintf("Unassigned group %d", groupID), c.IP())

	return c.JSON(fiber.Map{"message": "Group removed from shift successfully"})
}

// OptOutUser opts a user out of a shift
func OptOutUser(c *fiber.Ctx) error {
	var input models.ShiftUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := services.OptOutUser(database.DB, input.ShiftID, input.UserID); err != nil {
		return assignmentError(c, err)
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionOptOut, &input.ShiftID, "",
		fmt.Sprintf("User %d opted out", input.UserID), c.IP())

	return c.JSON(fiber.Map{"message": "User opted out of shift"})
}

// OptInUser removes a user's opt-out for a shift
func OptInUser(c *fiber.Ctx) error {
	var input models.ShiftUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := services.OptInUser(database.DB, input.ShiftID, input.UserID); err != nil {
		return assignmentError(c, err)
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionOptIn, &input.ShiftID, "",
		fmt.Sprintf("User %d opted into shift", input.UserID), c.IP())

	return c.JSON(fiber.Map{"message": "User opted into shift"})
}

// OptOutGroup opts a group out of a shift
func OptOutGroup(c *fiber.Ctx) error {
	var input models.ShiftGroupInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := services.OptOutGroup(database.DB, input.ShiftID, input.GroupID); err != nil {
		return assignmentError(c, err)
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionOptOut, &input.ShiftID, "",
		fmt.Sprintf("Group %d opted out", input.GroupID), c.IP())

	return c.JSON(fiber.Map{"message": "Group opted out of shift"})
}

// OptInGroup removes a group's opt-out for a shift
func OptInGroup(c *fiber.Ctx) error {
	var input models.ShiftGroupInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := services.OptInGroup(database.DB, input.ShiftID, input.GroupID); err != nil {
		return assignmentError(c, err)
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionOptIn, &input.ShiftID, "",
		fmt.Sprintf("Group %d opted into shift", input.GroupID), c.IP())

	return c.JSON(fiber.Map{"message": "Group opted into shift"})
}

// OptOutStatus reports the effective opt-out status for a user and shift
func OptOutStatus(c *fiber.Ctx) error {
	shiftID, err1 := c.ParamsInt("shiftID")
	userID, err2 := c.ParamsInt("userID")
	if err1 != nil || err2 != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid shift or user ID",
		})
	}

	optedOut, err := services.IsOptedOut(database.DB, uint(shiftID), uint(userID))
	if err != nil {
		return assignmentError(c, err)
	}

	return c.JSON(fiber.Map{"is_opted_out": optedOut})
}

// ListUserOptOuts returns all shifts a user is opted out of
func ListUserOptOuts(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	shifts, err := services.ListUserOptOuts(database.DB, uint(userID))
	if err != nil {
		return assignmentError(c, err)
	}

	return c.JSON(shifts)
}

// ListGroupOptOuts returns all shifts a group is opted out of
func ListGroupOptOuts(c *fiber.Ctx) error {
	groupID, err := c.ParamsInt("groupID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
	}

	shifts, err := services.ListGroupOptOuts(database.DB, uint(groupID))
	if err != nil {
		return assignmentError(c, err)
	}

	return c.JSON(shifts)
}

// AvailableUsers returns the active users not opted out of a shift
func AvailableUsers(c *fiber.Ctx) error {
	shiftID, err := c.ParamsInt("shiftID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid shift ID"})
	}

	users, err := services.AvailableUsers(database.DB, uint(shiftID))
	if err != nil {
		return assignmentError(c, err)
	}

	return c.JSON(users)
}

// GeneratePlan bulk-assigns volunteers across all active shifts
func GeneratePlan(c *fiber.Ctx) error {
	cfg := config.GetConfig()
	opts := services.PlanOptions{
		ClearExisting: c.QueryBool("clear_existing", false),
		UseGroups:     c.QueryBool("use_groups", true),
	}

	planner := services.NewPlanner(database.DB,
		services.WithDefaultCapacity(cfg.DefaultShiftCapacity),
		services.WithLogger(PlannerLogger),
	)

	result, err := planner.GeneratePlan(opts)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Plan generation failed",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionPlanGenerate, nil, "",
		fmt.Sprintf("%d assignments (%d via groups)", result.Stats.TotalAssignments, result.Stats.GroupAssignments), c.IP())

	return c.JSON(result)
}

// ListAssignments returns all current shift-user links annotated with how
// each assignment was made
func ListAssignments(c *fiber.Ctx) error {
	assignments, err := services.CurrentAssignments(database.DB)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch assignments",
		})
	}

	return c.JSON(fiber.Map{"assignments": assignments})
}

// ClearAssignments wipes all shift-user and shift-group associations
func ClearAssignments(c *fiber.Ctx) error {
	if err := services.ClearAllAssignments(database.DB); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear assignments",
		})
	}

	services.LogAudit(middleware.GetActor(c), models.AuditActionAssignmentsClear, nil, "", "", c.IP())

	return c.JSON(fiber.Map{"message": "All assignments cleared"})
}

// assignmentError maps core validation outcomes to HTTP responses.
func assignmentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Shift, user or group not found"})
	case errors.Is(err, services.ErrCapacityExceeded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Shift is at capacity"})
	case errors.Is(err, services.ErrUserInGroup):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User belongs to a group; use the group opt-out instead"})
	case errors.Is(err, services.ErrOptedOut):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Opted out of this shift"})
	case errors.Is(err, services.ErrTimeConflict):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Shift overlaps an existing assignment"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
