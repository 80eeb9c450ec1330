package services

import (
	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/models"
)

// LogAudit creates an audit log entry
func LogAudit(actor string, action models.AuditAction, shiftID *uint, shiftTitle string, details string, ipAddress string) {
	entry := models.AuditLog{
		Actor:      actor,
		Action:     action,
		ShiftID:    shiftID,
		ShiftTitle: shiftTitle,
		Details:    details,
		IPAddress:  ipAddress,
	}

	// Fire and forget - don't block on audit logging
	go func() {
		database.DB.Create(&entry)
	}()
}

// LogAuditSync creates an audit log entry synchronously
func LogAuditSync(actor string, action models.AuditAction, shiftID *uint, shiftTitle string, details string, ipAddress string) error {
	entry := models.AuditLog{
		Actor:      actor,
		Action:     action,
		ShiftID:    shiftID,
		ShiftTitle: shiftTitle,
		Details:    details,
		IPAddress:  ipAddress,
	}

	return database.DB.Create(&entry).Error
}
