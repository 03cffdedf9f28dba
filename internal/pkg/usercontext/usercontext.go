package usercontext

import (
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gofiber/fiber/v2"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID     uint       `json:"user_id"`
	Username   string     `json:"username"`
	Role       authz.Role `json:"role"`
	IsLoggedIn bool       `json:"is_logged_in"`
	IsAdmin    bool       `json:"is_admin"`
}

// Principal converts the request context into the explicit principal value
// the services take as an argument.
func (u UserContext) Principal() authz.Principal {
	if !u.IsLoggedIn {
		return authz.Guest()
	}
	if u.IsAdmin {
		return authz.Principal{Role: authz.RoleAdmin, ID: u.UserID}
	}
	return authz.Principal{Role: u.Role, ID: u.UserID}
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(KeyUserContext); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{Role: authz.RoleGuest, IsLoggedIn: false, IsAdmin: false}
}

// GetPrincipal resolves the request principal in one step.
func GetPrincipal(c *fiber.Ctx) authz.Principal {
	return GetUserContext(c).Principal()
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}
