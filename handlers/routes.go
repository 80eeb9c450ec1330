package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ini272/open-flair-shiftplan/middleware"
)

// RegisterRoutes wires the full API surface onto the app. Literal shift
// routes register before /:id so fiber matches them first.
func RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Rate limiter for auth endpoints (5 requests per minute per IP)
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many login attempts. Please try again later.",
			})
		},
	})

	// Public routes (with rate limiting on auth)
	api.Get("/setup/status", CheckSetup)
	api.Post("/setup", authLimiter, Setup)
	api.Post("/login", authLimiter, Login)

	auth := api.Group("/auth")
	auth.Get("/login/:token", authLimiter, LoginWithToken)
	auth.Get("/logout", Logout)
	auth.Get("/check", CheckAuth)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired())

	// Admin-only routes. AdminRequired is scoped to these prefixes so the
	// crew-token cookie still reaches the volunteer routes below.
	tokens := protected.Group("/auth/tokens", middleware.AdminRequired())
	tokens.Post("/", CreateAccessToken)
	tokens.Get("/", ListAccessTokens)
	tokens.Delete("/:id", InvalidateAccessToken)

	audit := protected.Group("/audit", middleware.AdminRequired())
	audit.Get("/logs", ListAuditLogs)
	audit.Get("/actions", GetAuditActions)

	// Volunteer routes
	users := protected.Group("/users")
	users.Get("/", ListUsers)
	users.Post("/", CreateUser)
	users.Get("/:id", GetUser)
	users.Put("/:id", UpdateUser)
	users.Delete("/:id", DeleteUser)

	// Group routes
	groups := protected.Group("/groups")
	groups.Get("/", ListGroups)
	groups.Post("/", CreateGroup)
	groups.Delete("/users/:userID", LeaveGroup)
	groups.Get("/:id", GetGroup)
	groups.Put("/:id", UpdateGroup)
	groups.Delete("/:id", DeleteGroup)
	groups.Post("/:id/users/:userID", JoinGroup)

	// Shift routes
	shifts := protected.Group("/shifts")
	shifts.Get("/", ListShifts)
	shifts.Post("/", CreateShift)

	// Assignment
	shifts.Post("/users", AddUserToShift)
	shifts.Post("/groups", AddGroupToShift)
	shifts.Delete("/users/:shiftID/:userID", RemoveUserFromShift)
	shifts.Delete("/groups/:shiftID/:groupID", RemoveGroupFromShift)

	// Opt-outs
	shifts.Post("/user-opt-out", OptOutUser)
	shifts.Post("/user-opt-in", OptInUser)
	shifts.Post("/group-opt-out", OptOutGroup)
	shifts.Post("/group-opt-in", OptInGroup)
	shifts.Get("/opt-out-status/:shiftID/:userID", OptOutStatus)
	shifts.Get("/user-opt-outs/:userID", ListUserOptOuts)
	shifts.Get("/group-opt-outs/:groupID", ListGroupOptOuts)
	shifts.Get("/available-users/:shiftID", AvailableUsers)

	// Planning
	shifts.Post("/generate-plan", GeneratePlan)
	shifts.Get("/assignments", ListAssignments)
	shifts.Delete("/assignments", ClearAssignments)

	shifts.Get("/:id", GetShift)
	shifts.Put("/:id", UpdateShift)
	shifts.Delete("/:id", DeleteShift)

	// Preference routes (older planning input mode)
	preferences := protected.Group("/preferences")
	preferences.Post("/", SetPreference)
	preferences.Get("/users/:userID", GetUserPreferences)
	preferences.Get("/shifts/:shiftID", GetUsersForShift)
	preferences.Post("/generate-plan", GeneratePreferencePlan)
}
