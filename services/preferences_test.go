package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPreferenceStoresFalse(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "zoe")
	shift := createShift(t, db, "Gate", at(8, 0), at(12, 0), nil)

	// a "cannot work" record must survive the insert as-is
	require.NoError(t, SetPreference(db, user.ID, shift.ID, false))

	prefs, err := UserPreferences(db, user.ID)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.False(t, prefs[0].CanWork)
}

func TestSetPreferenceReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "alice")
	shift := createShift(t, db, "Bar", at(18, 0), at(22, 0), nil)

	require.NoError(t, SetPreference(db, user.ID, shift.ID, true))
	require.NoError(t, SetPreference(db, user.ID, shift.ID, false))

	prefs, err := UserPreferences(db, user.ID)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.False(t, prefs[0].CanWork)
}

func TestUsersForShift(t *testing.T) {
	db := setupTestDB(t)
	yes := createUser(t, db, "bob")
	no := createUser(t, db, "carol")
	shift := createShift(t, db, "Gate", at(8, 0), at(12, 0), nil)

	require.NoError(t, SetPreference(db, yes.ID, shift.ID, true))
	require.NoError(t, SetPreference(db, no.ID, shift.ID, false))

	canWork, err := UsersForShift(db, shift.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []uint{yes.ID}, canWork)

	cannotWork, err := UsersForShift(db, shift.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []uint{no.ID}, cannotWork)
}

func TestPreferenceUnknownEntities(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "dave")
	shift := createShift(t, db, "Gate", at(8, 0), at(12, 0), nil)

	assert.ErrorIs(t, SetPreference(db, 999, shift.ID, true), ErrNotFound)
	assert.ErrorIs(t, SetPreference(db, user.ID, 999, true), ErrNotFound)

	_, err := UserPreferences(db, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = UsersForShift(db, 999, true)
	assert.ErrorIs(t, err, ErrNotFound)
}
