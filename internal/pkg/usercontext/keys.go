package usercontext

// Shared Locals/session keys used across controllers and middlewares
const (
	KeyUserContext = "USER_CONTEXT"
	KeyPrincipalID = "principal_id"
	KeyRole        = "principal_role"
	KeyIsAdmin     = "is_admin"
)
