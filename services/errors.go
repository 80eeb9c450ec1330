package services

import "errors"

// Validation outcomes callers are expected to branch on. None of these are
// server failures; handlers map them to 400/404 responses.
var (
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("shift is at capacity")
	ErrOptedOut         = errors.New("opted out of this shift")
	ErrTimeConflict     = errors.New("shift overlaps an existing assignment")
	ErrUserInGroup      = errors.New("user belongs to a group; use the group-level operation")
	ErrAlreadyInGroup   = errors.New("user already belongs to a group")
	ErrNotInGroup       = errors.New("user is not in a group")
	ErrGroupFull        = errors.New("group is full")
)
