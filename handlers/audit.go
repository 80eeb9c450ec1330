package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/models"
)

// ListAuditLogs returns audit logs (admin only)
func ListAuditLogs(c *fiber.Ctx) error {
	// Parse query parameters
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	action := c.Query("action")
	shiftIDStr := c.Query("shift_id")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	// Build query
	query := database.DB.Model(&models.AuditLog{})

	if action != "" {
		query = query.Where("action = ?", action)
	}
	if shiftIDStr != "" {
		if shiftID, err := strconv.ParseUint(shiftIDStr, 10, 32); err == nil {
			query = query.Where("shift_id = ?", shiftID)
		}
	}

	// Get total count
	var total int64
	query.Count(&total)

	// Get logs
	var logs []models.AuditLog
	if result := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs); result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch audit logs",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetAuditActions returns the list of known audit actions for filtering
func GetAuditActions(c *fiber.Ctx) error {
	actions := []models.AuditAction{
		models.AuditActionLogin,
		models.AuditActionTokenLogin,
		models.AuditActionTokenCreate,
		models.AuditActionTokenInvalidate,
		models.AuditActionUserCreate,
		models.AuditActionUserUpdate,
		models.AuditActionUserDelete,
		models.AuditActionGroupCreate,
		models.AuditActionGroupDelete,
		models.AuditActionShiftCreate,
		models.AuditActionShiftUpdate,
		models.AuditActionShiftDelete,
		models.AuditActionShiftAssign,
		models.AuditActionShiftUnassign,
		models.AuditActionOptOut,
		models.AuditActionOptIn,
		models.AuditActionPlanGenerate,
		models.AuditActionAssignmentsClear,
	}
	return c.JSON(actions)
}
