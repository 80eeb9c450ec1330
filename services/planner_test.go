package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ini272/open-flair-shiftplan/models"
)

func newTestPlanner(db *gorm.DB, seed int64) *Planner {
	return NewPlanner(db, WithRand(rand.New(rand.NewSource(seed))))
}

func TestPlanRespectsOptOuts(t *testing.T) {
	db := setupTestDB(t)
	optedOut := createUser(t, db, "alice")
	available := createUser(t, db, "bob")
	shift := createShift(t, db, "Gate Morning", at(8, 0), at(12, 0), intPtr(1))

	require.NoError(t, OptOutUser(db, shift.ID, optedOut.ID))

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, available.ID, result.Assignments[0].UserID)
	assert.Equal(t, AssignedViaIndividual, result.Assignments[0].AssignedVia)
	assert.Equal(t, 1, result.Stats.TotalAssignments)
}

func TestPlanNeverDoubleBooks(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "carol")
	createShift(t, db, "Bar Early", at(16, 0), at(20, 0), intPtr(1))
	createShift(t, db, "Bar Overlap", at(18, 0), at(22, 0), intPtr(1))

	result, err := newTestPlanner(db, 7).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1, "one user cannot work two overlapping shifts")
	assert.Equal(t, user.ID, result.Assignments[0].UserID)
	assert.Equal(t, 1, result.Stats.ConflictsAvoided)
}

func TestPlanAllowsBackToBackShifts(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "dave")
	createShift(t, db, "Gate A", at(8, 0), at(12, 0), intPtr(1))
	createShift(t, db, "Gate B", at(12, 0), at(16, 0), intPtr(1))

	result, err := newTestPlanner(db, 7).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	assert.Len(t, result.Assignments, 2, "touching shifts do not conflict")
	assert.Equal(t, 0, result.Stats.ConflictsAvoided)
}

func TestPlanRejectsOversizedGroup(t *testing.T) {
	db := setupTestDB(t)
	var members []*models.User
	for i := 0; i < 3; i++ {
		members = append(members, createUser(t, db, fmt.Sprintf("crew%d", i)))
	}
	createGroup(t, db, "Big Crew", members...)
	createUser(t, db, "solo1")
	createUser(t, db, "solo2")
	shift := createShift(t, db, "Merch", at(14, 0), at(18, 0), intPtr(2))

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Stats.GroupAssignments, "a group larger than the remaining capacity is skipped")
	assert.Equal(t, 0, result.Stats.GroupsUsed)
	assert.Equal(t, 2, result.Stats.TotalAssignments)

	var groupLinks int64
	require.NoError(t, db.Table("shift_groups").Where("shift_id = ?", shift.ID).Count(&groupLinks).Error)
	assert.EqualValues(t, 0, groupLinks)
}

func TestPlanAssignsWholeGroup(t *testing.T) {
	db := setupTestDB(t)
	a := createUser(t, db, "erin")
	b := createUser(t, db, "frank")
	group := createGroup(t, db, "Crew A", a, b)
	shift := createShift(t, db, "Stage Build", at(9, 0), at(13, 0), intPtr(4))

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.GroupAssignments)
	assert.Equal(t, 1, result.Stats.GroupsUsed)

	viaGroup := 0
	for _, as := range result.Assignments {
		if as.AssignedVia == AssignedViaGroup {
			viaGroup++
			assert.Equal(t, group.Name, as.GroupName)
		}
	}
	assert.Equal(t, 2, viaGroup)

	var loaded models.Shift
	require.NoError(t, db.Preload("Groups").First(&loaded, shift.ID).Error)
	assert.Len(t, loaded.Groups, 1, "the group link is persisted alongside the flattened members")
}

func TestPlanSkipsGroupPhaseForSingleSlot(t *testing.T) {
	db := setupTestDB(t)
	member := createUser(t, db, "grace")
	createGroup(t, db, "Tiny Crew", member)
	createShift(t, db, "Door", at(19, 0), at(23, 0), intPtr(1))

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Stats.GroupAssignments, "group phase needs at least two open slots")
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, AssignedViaIndividual, result.Assignments[0].AssignedVia)
}

func TestPlanGroupInheritsOptOut(t *testing.T) {
	db := setupTestDB(t)
	member := createUser(t, db, "heidi")
	group := createGroup(t, db, "Crew B", member)
	shift := createShift(t, db, "Bar Evening", at(18, 0), at(22, 0), intPtr(3))

	require.NoError(t, OptOutGroup(db, shift.ID, group.ID))

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	assert.Empty(t, result.Assignments, "members inherit the group opt-out in both phases")
}

func TestPlanNeverExceedsCapacity(t *testing.T) {
	db := setupTestDB(t)
	var members []*models.User
	for i := 0; i < 2; i++ {
		members = append(members, createUser(t, db, fmt.Sprintf("crew%d", i)))
	}
	createGroup(t, db, "Crew C", members...)
	for i := 0; i < 4; i++ {
		createUser(t, db, fmt.Sprintf("solo%d", i))
	}
	shift := createShift(t, db, "Merch", at(14, 0), at(18, 0), intPtr(3))

	result, err := newTestPlanner(db, 99).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Stats.TotalAssignments)
	count, err := CurrentUserCount(db, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPlanBuildsOnExistingAssignments(t *testing.T) {
	db := setupTestDB(t)
	assigned := createUser(t, db, "ivan")
	createUser(t, db, "judy")
	shift := createShift(t, db, "Gate", at(8, 0), at(12, 0), intPtr(2))

	require.NoError(t, AddUserToShift(db, shift.ID, assigned.ID))

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	// only the one open slot is filled, and not with the assigned user
	require.Len(t, result.Assignments, 1)
	assert.NotEqual(t, assigned.ID, result.Assignments[0].UserID)

	count, err := CurrentUserCount(db, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPlanClearExisting(t *testing.T) {
	db := setupTestDB(t)
	stale := createUser(t, db, "mallory")
	shift := createShift(t, db, "Gate", at(8, 0), at(12, 0), intPtr(1))

	require.NoError(t, AddUserToShift(db, shift.ID, stale.ID))
	require.NoError(t, OptOutUser(db, shift.ID, stale.ID))

	fresh := createUser(t, db, "niaj")

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{ClearExisting: true, UseGroups: true})
	require.NoError(t, err)

	// the opted-out user's stale assignment is gone; the slot went elsewhere
	require.Len(t, result.Assignments, 1)
	assert.Equal(t, fresh.ID, result.Assignments[0].UserID)

	var loaded models.Shift
	require.NoError(t, db.Preload("Users").First(&loaded, shift.ID).Error)
	require.Len(t, loaded.Users, 1)
	assert.Equal(t, fresh.ID, loaded.Users[0].ID)
}

func TestPlanIgnoresInactive(t *testing.T) {
	db := setupTestDB(t)
	inactive := createUser(t, db, "oscar")
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	createUser(t, db, "peggy")

	offShift := createShift(t, db, "Cancelled", at(10, 0), at(14, 0), intPtr(1))
	require.NoError(t, db.Model(offShift).Update("is_active", false).Error)
	createShift(t, db, "Running", at(10, 0), at(14, 0), intPtr(2))

	result, err := newTestPlanner(db, 42).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1)
	assert.Equal(t, "Running", result.Assignments[0].ShiftTitle)
	assert.Equal(t, "peggy", result.Assignments[0].Username)
}

func TestPlanIsDeterministicForSeed(t *testing.T) {
	seedFixture := func(t *testing.T) *gorm.DB {
		db := setupTestDB(t)
		for i := 0; i < 6; i++ {
			createUser(t, db, fmt.Sprintf("user%d", i))
		}
		createShift(t, db, "Shift A", at(8, 0), at(12, 0), intPtr(2))
		createShift(t, db, "Shift B", at(12, 0), at(16, 0), intPtr(3))
		createShift(t, db, "Shift C", at(10, 0), at(14, 0), intPtr(2))
		return db
	}

	first, err := newTestPlanner(seedFixture(t), 1234).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)
	second, err := newTestPlanner(seedFixture(t), 1234).GeneratePlan(PlanOptions{UseGroups: true})
	require.NoError(t, err)

	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestPreferencePlan(t *testing.T) {
	db := setupTestDB(t)
	willing := createUser(t, db, "quinn")
	unwilling := createUser(t, db, "rupert")
	createUser(t, db, "sybil") // no record at all
	shift := createShift(t, db, "Bar", at(18, 0), at(22, 0), intPtr(3))

	require.NoError(t, SetPreference(db, willing.ID, shift.ID, true))
	require.NoError(t, SetPreference(db, unwilling.ID, shift.ID, false))

	result, err := newTestPlanner(db, 42).GeneratePreferencePlan()
	require.NoError(t, err)

	require.Len(t, result.Assignments, 1, "only users with a can-work record are eligible")
	assert.Equal(t, willing.ID, result.Assignments[0].UserID)
}

func TestCurrentAssignments(t *testing.T) {
	db := setupTestDB(t)
	a := createUser(t, db, "trent")
	b := createUser(t, db, "victor")
	group := createGroup(t, db, "Crew D", b)
	shift := createShift(t, db, "Gate", at(8, 0), at(12, 0), intPtr(4))

	require.NoError(t, AddUserToShift(db, shift.ID, a.ID))
	require.NoError(t, AddGroupToShift(db, shift.ID, group.ID))

	assignments, err := CurrentAssignments(db)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	byUser := make(map[uint]PlanAssignment, len(assignments))
	for _, as := range assignments {
		byUser[as.UserID] = as
	}
	assert.Equal(t, AssignedViaIndividual, byUser[a.ID].AssignedVia)
	assert.Equal(t, AssignedViaGroup, byUser[b.ID].AssignedVia)
	assert.Equal(t, group.Name, byUser[b.ID].GroupName)
}

func TestClearAllAssignments(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "walter")
	group := createGroup(t, db, "Crew E", user)
	shift := createShift(t, db, "Gate", at(8, 0), at(12, 0), nil)

	require.NoError(t, AddGroupToShift(db, shift.ID, group.ID))
	require.NoError(t, ClearAllAssignments(db))

	var userLinks, groupLinks int64
	require.NoError(t, db.Table("shift_users").Count(&userLinks).Error)
	require.NoError(t, db.Table("shift_groups").Count(&groupLinks).Error)
	assert.EqualValues(t, 0, userLinks)
	assert.EqualValues(t, 0, groupLinks)
}
