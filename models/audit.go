package models

import (
	"time"
)

type AuditAction string

const (
	AuditActionLogin            AuditAction = "login"
	AuditActionTokenLogin       AuditAction = "token_login"
	AuditActionTokenCreate      AuditAction = "token_create"
	AuditActionTokenInvalidate  AuditAction = "token_invalidate"
	AuditActionUserCreate       AuditAction = "user_create"
	AuditActionUserUpdate       AuditAction = "user_update"
	AuditActionUserDelete       AuditAction = "user_delete"
	AuditActionGroupCreate      AuditAction = "group_create"
	AuditActionGroupDelete      AuditAction = "group_delete"
	AuditActionShiftCreate      AuditAction = "shift_create"
	AuditActionShiftUpdate      AuditAction = "shift_update"
	AuditActionShiftDelete      AuditAction = "shift_delete"
	AuditActionShiftAssign      AuditAction = "shift_assign"
	AuditActionShiftUnassign    AuditAction = "shift_unassign"
	AuditActionOptOut           AuditAction = "opt_out"
	AuditActionOptIn            AuditAction = "opt_in"
	AuditActionPlanGenerate     AuditAction = "plan_generate"
	AuditActionAssignmentsClear AuditAction = "assignments_clear"
)

// AuditLog records who changed what. Plan runs log a single entry with the
// run statistics in Details.
type AuditLog struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `gorm:"index" json:"action"`
	ShiftID    *uint       `gorm:"index" json:"shift_id,omitempty"`
	ShiftTitle string      `json:"shift_title,omitempty"`
	Details    string      `json:"details,omitempty"`
	IPAddress  string      `json:"ip_address"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
}
