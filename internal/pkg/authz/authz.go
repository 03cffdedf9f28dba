package authz

import (
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
)

type Role string

const (
	RoleGuest    Role = "guest"
	RoleCreator  Role = "creator"
	RoleBusiness Role = "business"
	RoleAdmin    Role = "admin"
)

// Principal is the resolved identity of a request. Services take it as an
// explicit argument; nothing re-derives identity from the transport layer.
type Principal struct {
	Role Role `json:"role"`
	ID   uint `json:"id"`
}

func Guest() Principal {
	return Principal{Role: RoleGuest}
}

func (p Principal) IsGuest() bool {
	return p.Role == RoleGuest || p.Role == ""
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// RequireAuthenticated fails with Unauthenticated for guests. Callers map
// this to 401, as opposed to 403 for a present-but-insufficient principal.
func RequireAuthenticated(p Principal) error {
	if p.IsGuest() {
		return faults.ErrUnauthenticated
	}
	return nil
}

// RequireAdmin allows only admin principals.
func RequireAdmin(p Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return faults.Forbiddenf("admin access required")
	}
	return nil
}

// RequireBusinessOwner allows the owning business or an admin.
func RequireBusinessOwner(p Principal, businessID uint) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() {
		return nil
	}
	if p.Role == RoleBusiness && p.ID == businessID {
		return nil
	}
	return faults.Forbiddenf("business ownership required")
}

// RequireCreatorOwner allows the owning creator or an admin.
func RequireCreatorOwner(p Principal, creatorID uint) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() {
		return nil
	}
	if p.Role == RoleCreator && p.ID == creatorID {
		return nil
	}
	return faults.Forbiddenf("creator ownership required")
}

// RequireParticipant allows either side of an engagement (the application's
// creator or the job's owning business) or an admin. Used by the messaging
// gate.
func RequireParticipant(p Principal, creatorID, businessID uint) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() {
		return nil
	}
	if p.Role == RoleCreator && p.ID == creatorID {
		return nil
	}
	if p.Role == RoleBusiness && p.ID == businessID {
		return nil
	}
	return faults.Forbiddenf("not a participant of this conversation")
}

// IsParticipant is the boolean form of RequireParticipant.
func IsParticipant(p Principal, creatorID, businessID uint) bool {
	return RequireParticipant(p, creatorID, businessID) == nil
}
