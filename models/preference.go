package models

// ShiftPreference records whether a user can work a shift. At most one
// record exists per (user, shift) pair. This is the older, weaker input
// mode for plan generation; the opt-out registry supersedes it.
// CanWork carries no column default: gorm skips zero values for defaulted
// columns on insert, which would turn a stored false into true.
type ShiftPreference struct {
	UserID  uint `gorm:"primaryKey" json:"user_id"`
	ShiftID uint `gorm:"primaryKey" json:"shift_id"`
	CanWork bool `json:"can_work"`
}

func (ShiftPreference) TableName() string { return "shift_preferences" }

// PreferenceInput is used for setting a preference
type PreferenceInput struct {
	UserID  uint `json:"user_id"`
	ShiftID uint `json:"shift_id"`
	CanWork bool `json:"can_work"`
}
