package controllers

import (
	"errors"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/app/repository"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/session"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type registerBusinessRequest struct {
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type registerCreatorRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

// HandleRegisterBusiness creates a business account.
func HandleRegisterBusiness(c *fiber.Ctx) error {
	var req registerBusinessRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	business, err := models.CreateBusiness(req.CompanyName, req.Email, req.Password)
	if err != nil {
		return jsonError(c, faults.Invalidf("invalid registration: %v", err))
	}
	if err := repository.GetGlobalFactory().GetBusinessRepository().Create(business); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return jsonError(c, faults.Conflictf("email is already registered"))
		}
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(business)
}

// HandleRegisterCreator creates a creator account.
func HandleRegisterCreator(c *fiber.Ctx) error {
	var req registerCreatorRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	creator, err := models.CreateCreator(req.Name, req.Email, req.Password)
	if err != nil {
		return jsonError(c, faults.Invalidf("invalid registration: %v", err))
	}
	if err := repository.GetGlobalFactory().GetCreatorRepository().Create(creator); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return jsonError(c, faults.Conflictf("email is already registered"))
		}
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(creator)
}

// HandleLogin authenticates a business or creator and starts a session.
// user_type selects which account table the email resolves against.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	var (
		userID   uint
		username string
		role     authz.Role
		isAdmin  bool
		hash     string
	)
	switch req.UserType {
	case models.SenderTypeBusiness:
		business, err := repository.GetGlobalFactory().GetBusinessRepository().GetByEmail(req.Email)
		if err != nil {
			return loginFailed(c)
		}
		userID, username, role, hash = business.ID, business.CompanyName, authz.RoleBusiness, business.Password
	case models.SenderTypeCreator:
		creator, err := repository.GetGlobalFactory().GetCreatorRepository().GetByEmail(req.Email)
		if err != nil {
			return loginFailed(c)
		}
		userID, username, role, hash = creator.ID, creator.Name, authz.RoleCreator, creator.Password
		isAdmin = creator.IsAdmin
	default:
		return jsonError(c, faults.Invalidf("unknown user type %q", req.UserType))
	}

	if !models.CheckPasswordHash(req.Password, hash) {
		return loginFailed(c)
	}

	store := session.GetSessionStore()
	if store == nil {
		return jsonError(c, errors.New("session store unavailable"))
	}
	sess, err := store.Get(c)
	if err != nil {
		return jsonError(c, err)
	}
	sess.Set(usercontext.KeyPrincipalID, userID)
	sess.Set(usercontext.KeyRole, string(role))
	sess.Set(usercontext.KeyIsAdmin, isAdmin)
	sess.Set("username", username)
	if err := sess.Save(); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id":  userID,
		"username": username,
		"role":     role,
		"is_admin": isAdmin,
	})
}

// HandleLogout destroys the session.
func HandleLogout(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store != nil {
		if sess, err := store.Get(c); err == nil {
			_ = sess.Destroy()
		}
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleMe returns the caller's resolved context.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, faults.ErrUnauthenticated)
	}
	return c.JSON(userCtx)
}

// Wrong credentials and unknown accounts are indistinguishable on purpose.
func loginFailed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "unauthorized",
		"message": "invalid credentials",
	})
}
