package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ini272/open-flair-shiftplan/database"
	"github.com/ini272/open-flair-shiftplan/models"
)

func TestMain(m *testing.M) {
	// isolate the config singleton from any real ~/.shiftplan
	dir, err := os.MkdirTemp("", "shiftplan-test")
	if err != nil {
		panic(err)
	}
	os.Setenv("SHIFTPLAN_CONFIG_DIR", dir)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	app := fiber.New()
	RegisterRoutes(app)
	return app
}

// request runs one API call against the app. A non-empty token goes into the
// Authorization header; cookies ride along as-is.
func request(t *testing.T, app *fiber.App, method, path string, body interface{}, token string, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	resp.Body.Close()
}

// setupAdmin runs the first-boot setup and returns a JWT for the new admin.
func setupAdmin(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp := request(t, app, http.MethodPost, "/api/setup",
		fiber.Map{"username": "admin", "password": "festival-2025"}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var auth AuthResponse
	decode(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func TestSetupAndLogin(t *testing.T) {
	app := setupTestApp(t)

	resp := request(t, app, http.MethodGet, "/api/setup/status", nil, "")
	var status map[string]bool
	decode(t, resp, &status)
	assert.False(t, status["setup_complete"])

	token := setupAdmin(t, app)
	assert.NotEmpty(t, token)

	resp = request(t, app, http.MethodGet, "/api/setup/status", nil, "")
	decode(t, resp, &status)
	assert.True(t, status["setup_complete"])

	// setup is a one-shot
	resp = request(t, app, http.MethodPost, "/api/setup",
		fiber.Map{"username": "second", "password": "festival-2025"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = request(t, app, http.MethodPost, "/api/login",
		fiber.Map{"username": "admin", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, app, http.MethodPost, "/api/login",
		fiber.Map{"username": "admin", "password": "festival-2025"}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := setupTestApp(t)
	token := setupAdmin(t, app)

	resp := request(t, app, http.MethodGet, "/api/users/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = request(t, app, http.MethodGet, "/api/users/", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAccessTokenLogin(t *testing.T) {
	app := setupTestApp(t)
	adminToken := setupAdmin(t, app)

	resp := request(t, app, http.MethodPost, "/api/auth/tokens",
		fiber.Map{"name": "crew"}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.AccessToken
	decode(t, resp, &created)
	require.NotEmpty(t, created.Token)

	resp = request(t, app, http.MethodGet, "/api/auth/login/"+created.Token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "token login must set the session cookie")

	// the cookie grants crew access to the volunteer routes
	for _, path := range []string{"/api/shifts/", "/api/users/", "/api/groups/"} {
		resp = request(t, app, http.MethodGet, path, nil, "", cookie)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	// but never to the admin surface
	for _, path := range []string{"/api/auth/tokens/", "/api/audit/logs", "/api/audit/actions"} {
		resp = request(t, app, http.MethodGet, path, nil, "", cookie)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}

	// a made-up token is rejected
	resp = request(t, app, http.MethodGet, "/api/shifts/", nil, "",
		&http.Cookie{Name: "access_token", Value: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGroupMembershipFlow(t *testing.T) {
	app := setupTestApp(t)
	token := setupAdmin(t, app)

	resp := request(t, app, http.MethodPost, "/api/groups/", fiber.Map{"name": "Crew A"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var group models.Group
	decode(t, resp, &group)

	resp = request(t, app, http.MethodPost, "/api/users/", fiber.Map{
		"username": "vol",
		"email":    "vol@example.com",
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user models.User
	decode(t, resp, &user)

	resp = request(t, app, http.MethodPost,
		fmt.Sprintf("/api/groups/%d/users/%d", group.ID, user.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// leaving returns the refreshed user with the membership gone
	resp = request(t, app, http.MethodDelete,
		fmt.Sprintf("/api/groups/users/%d", user.ID), nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var left models.User
	decode(t, resp, &left)
	assert.Equal(t, user.ID, left.ID)
	assert.Nil(t, left.GroupID)

	resp = request(t, app, http.MethodDelete,
		fmt.Sprintf("/api/groups/users/%d", user.ID), nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShiftAssignmentFlow(t *testing.T) {
	app := setupTestApp(t)
	token := setupAdmin(t, app)

	start := time.Date(2025, 8, 6, 18, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)
	resp := request(t, app, http.MethodPost, "/api/shifts/", fiber.Map{
		"title":      "Bar Evening",
		"start_time": start,
		"end_time":   end,
		"capacity":   1,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var shift models.Shift
	decode(t, resp, &shift)

	var users [2]models.User
	for i := range users {
		resp = request(t, app, http.MethodPost, "/api/users/", fiber.Map{
			"username": fmt.Sprintf("vol%d", i),
			"email":    fmt.Sprintf("vol%d@example.com", i),
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decode(t, resp, &users[i])
	}

	resp = request(t, app, http.MethodPost, "/api/shifts/users",
		models.ShiftUserInput{ShiftID: shift.ID, UserID: users[0].ID}, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the shift holds one volunteer; the second is rejected
	resp = request(t, app, http.MethodPost, "/api/shifts/users",
		models.ShiftUserInput{ShiftID: shift.ID, UserID: users[1].ID}, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = request(t, app, http.MethodDelete,
		fmt.Sprintf("/api/shifts/users/%d/%d", shift.ID, users[0].ID), nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, app, http.MethodGet, fmt.Sprintf("/api/shifts/%d", shift.ID), nil, token)
	var loaded models.Shift
	decode(t, resp, &loaded)
	assert.Empty(t, loaded.Users)
}

func TestOptOutAndPlanFlow(t *testing.T) {
	app := setupTestApp(t)
	token := setupAdmin(t, app)

	start := time.Date(2025, 8, 7, 8, 0, 0, 0, time.UTC)
	resp := request(t, app, http.MethodPost, "/api/shifts/", fiber.Map{
		"title":      "Gate Morning",
		"start_time": start,
		"end_time":   start.Add(4 * time.Hour),
		"capacity":   1,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var shift models.Shift
	decode(t, resp, &shift)

	var users [2]models.User
	for i, name := range []string{"anna", "ben"} {
		resp = request(t, app, http.MethodPost, "/api/users/", fiber.Map{
			"username": name,
			"email":    name + "@example.com",
		}, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		decode(t, resp, &users[i])
	}

	resp = request(t, app, http.MethodPost, "/api/shifts/user-opt-out",
		models.ShiftUserInput{ShiftID: shift.ID, UserID: users[0].ID}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, app, http.MethodGet,
		fmt.Sprintf("/api/shifts/opt-out-status/%d/%d", shift.ID, users[0].ID), nil, token)
	var status map[string]interface{}
	decode(t, resp, &status)
	assert.Equal(t, true, status["is_opted_out"])

	resp = request(t, app, http.MethodGet,
		fmt.Sprintf("/api/shifts/available-users/%d", shift.ID), nil, token)
	var available []models.User
	decode(t, resp, &available)
	require.Len(t, available, 1)
	assert.Equal(t, users[1].ID, available[0].ID)

	resp = request(t, app, http.MethodPost, "/api/shifts/generate-plan", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, app, http.MethodGet, fmt.Sprintf("/api/shifts/%d", shift.ID), nil, token)
	var loaded models.Shift
	decode(t, resp, &loaded)
	require.Len(t, loaded.Users, 1)
	assert.Equal(t, users[1].ID, loaded.Users[0].ID)

	resp = request(t, app, http.MethodDelete, "/api/shifts/assignments", nil, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = request(t, app, http.MethodGet, "/api/shifts/assignments", nil, token)
	var wrapper struct {
		Assignments []interface{} `json:"assignments"`
	}
	decode(t, resp, &wrapper)
	assert.Empty(t, wrapper.Assignments)
}
