package middleware

import (
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/session"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware resolves the session into a principal for every
// request. Session issuance itself is handled outside this service; this
// middleware only reads what the session layer established.
func UserContextMiddleware(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		c.Locals(usercontext.KeyUserContext, anonymousContext())
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		// On error: treat as anonymous
		c.Locals(usercontext.KeyUserContext, anonymousContext())
		return c.Next()
	}

	userID, ok := sess.Get(usercontext.KeyPrincipalID).(uint)
	if !ok || userID == 0 {
		c.Locals(usercontext.KeyUserContext, anonymousContext())
		return c.Next()
	}

	role, _ := sess.Get(usercontext.KeyRole).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)
	username := session.GetSessionValue(c, "username")

	userCtx := usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		Role:       authz.Role(role),
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	}
	c.Locals(usercontext.KeyUserContext, userCtx)

	return c.Next()
}

func anonymousContext() usercontext.UserContext {
	return usercontext.UserContext{
		Role:       authz.RoleGuest,
		IsLoggedIn: false,
		IsAdmin:    false,
	}
}
