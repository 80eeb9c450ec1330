package services

import (
	"time"

	"github.com/ini272/open-flair-shiftplan/models"
)

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) overlap. Touching endpoints do not count: a shift ending
// at 12:00 never conflicts with one starting at 12:00.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

type interval struct {
	start time.Time
	end   time.Time
}

// occupancyIndex tracks, per user, the time intervals of shifts assigned so
// far within one planning run. It is seeded from persisted assignments when
// the run does not clear them first.
type occupancyIndex map[uint][]interval

func (o occupancyIndex) add(userID uint, start, end time.Time) {
	o[userID] = append(o[userID], interval{start: start, end: end})
}

func (o occupancyIndex) conflicts(userID uint, start, end time.Time) bool {
	for _, iv := range o[userID] {
		if Overlaps(start, end, iv.start, iv.end) {
			return true
		}
	}
	return false
}

// optOutIndex is a snapshot of both opt-out relations, keyed by shift.
type optOutIndex struct {
	users  map[uint]map[uint]bool // shiftID -> userIDs
	groups map[uint]map[uint]bool // shiftID -> groupIDs
}

func newOptOutIndex(userOptOuts []models.ShiftUserOptOut, groupOptOuts []models.ShiftGroupOptOut) *optOutIndex {
	idx := &optOutIndex{
		users:  make(map[uint]map[uint]bool),
		groups: make(map[uint]map[uint]bool),
	}
	for _, o := range userOptOuts {
		if idx.users[o.ShiftID] == nil {
			idx.users[o.ShiftID] = make(map[uint]bool)
		}
		idx.users[o.ShiftID][o.UserID] = true
	}
	for _, o := range groupOptOuts {
		if idx.groups[o.ShiftID] == nil {
			idx.groups[o.ShiftID] = make(map[uint]bool)
		}
		idx.groups[o.ShiftID][o.GroupID] = true
	}
	return idx
}

// optedOut resolves the effective status: a direct record, or the user's
// current group holding a record for the shift.
func (idx *optOutIndex) optedOut(shiftID uint, user *models.User) bool {
	if idx.users[shiftID][user.ID] {
		return true
	}
	if user.GroupID != nil && idx.groups[shiftID][*user.GroupID] {
		return true
	}
	return false
}

// rejectReason is the outcome of a single candidate check during planning.
type rejectReason int

const (
	rejectNone rejectReason = iota
	rejectCapacity
	rejectOptedOut
	rejectTimeConflict
)

// checkUser answers whether a user can take one slot on the shift right now.
// Pure over the passed-in indexes; it mutates nothing.
func checkUser(shift *models.Shift, user *models.User, remaining int, optOuts *optOutIndex, occupancy occupancyIndex) rejectReason {
	if remaining < 1 {
		return rejectCapacity
	}
	if optOuts.optedOut(shift.ID, user) {
		return rejectOptedOut
	}
	if occupancy.conflicts(user.ID, shift.StartTime, shift.EndTime) {
		return rejectTimeConflict
	}
	return rejectNone
}

// checkGroup answers whether a whole group fits on the shift. Group
// placement is all-or-nothing: one blocked member rejects the group.
func checkGroup(shift *models.Shift, members []models.User, remaining int, optOuts *optOutIndex, occupancy occupancyIndex) rejectReason {
	if len(members) > remaining {
		return rejectCapacity
	}
	for i := range members {
		if optOuts.optedOut(shift.ID, &members[i]) {
			return rejectOptedOut
		}
		if occupancy.conflicts(members[i].ID, shift.StartTime, shift.EndTime) {
			return rejectTimeConflict
		}
	}
	return rejectNone
}
