package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"gorm.io/gorm"
)

// ErrConversationNotActive is returned when the owning application has left
// accepted/engaged. It is deliberately distinct from an authorization
// failure: the caller is a legitimate participant, the channel is just
// closed. Maps to 409.
var ErrConversationNotActive = fmt.Errorf("conversation not active: %w", faults.ErrConflict)

// Gate owns read/write authorization and read-receipt bookkeeping for the
// engagement-scoped message channel.
type Gate struct {
	repo Repository
}

// NewGate creates a messaging gate from an injected repository.
func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

// NewGateFromDB creates a messaging gate from a GORM DB handle.
func NewGateFromDB(db *gorm.DB) *Gate {
	return &Gate{repo: NewRepository(db)}
}

// resolve loads the application and its participant pair.
func (g *Gate) resolve(applicationID uint) (*models.JobApplication, uint, uint, error) {
	app, err := g.repo.GetApplication(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, 0, faults.ErrNotFound
		}
		return nil, 0, 0, err
	}
	job, err := g.repo.GetJob(app.JobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, 0, faults.ErrNotFound
		}
		return nil, 0, 0, err
	}
	return app, app.CreatorID, job.BusinessID, nil
}

// CanRead reports whether the principal may read the conversation.
func (g *Gate) CanRead(p authz.Principal, applicationID uint) (bool, error) {
	_, creatorID, businessID, err := g.resolve(applicationID)
	if err != nil {
		return false, err
	}
	return authz.IsParticipant(p, creatorID, businessID), nil
}

// CanWrite reports whether the principal may currently write to the
// conversation (participant and application in accepted/engaged).
func (g *Gate) CanWrite(p authz.Principal, applicationID uint) (bool, error) {
	app, creatorID, businessID, err := g.resolve(applicationID)
	if err != nil {
		return false, err
	}
	if !authz.IsParticipant(p, creatorID, businessID) {
		return false, nil
	}
	return app.ConversationActive(), nil
}

// ListMessages returns the conversation in creation order. Participants may
// read history regardless of the application's current status.
func (g *Gate) ListMessages(p authz.Principal, applicationID uint) ([]models.JobMessage, error) {
	_, creatorID, businessID, err := g.resolve(applicationID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireParticipant(p, creatorID, businessID); err != nil {
		return nil, err
	}
	return g.repo.ListMessages(applicationID)
}

// Send appends a message. The declared sender identity must match the
// principal exactly: a creator can never send as business, and nobody sends
// under another id. Writes require an active conversation.
func (g *Gate) Send(p authz.Principal, applicationID uint, senderType string, body string) (*models.JobMessage, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	app, creatorID, businessID, err := g.resolve(applicationID)
	if err != nil {
		return nil, err
	}

	switch senderType {
	case models.SenderTypeCreator:
		if p.Role != authz.RoleCreator || p.ID != creatorID {
			return nil, faults.Forbiddenf("sender identity does not match principal")
		}
	case models.SenderTypeBusiness:
		if p.Role != authz.RoleBusiness || p.ID != businessID {
			return nil, faults.Forbiddenf("sender identity does not match principal")
		}
	default:
		return nil, faults.Invalidf("unknown sender type %q", senderType)
	}

	if !app.ConversationActive() {
		return nil, ErrConversationNotActive
	}

	msg := &models.JobMessage{
		ApplicationID: applicationID,
		SenderType:    senderType,
		SenderID:      p.ID,
		Message:       body,
	}
	if err := msg.Validate(); err != nil {
		return nil, faults.Invalidf("invalid message: %v", err)
	}
	if err := g.repo.CreateMessage(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkRead flips every unread counterpart message to read. Idempotent:
// calling it again after everything is read is a no-op, never an error.
func (g *Gate) MarkRead(p authz.Principal, applicationID uint) (int64, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return 0, err
	}
	_, creatorID, businessID, err := g.resolve(applicationID)
	if err != nil {
		return 0, err
	}
	if err := authz.RequireParticipant(p, creatorID, businessID); err != nil {
		return 0, err
	}

	recipientType, err := participantType(p, creatorID, businessID)
	if err != nil {
		return 0, err
	}
	// Only messages sent by the counterpart are flipped, never one's own.
	return g.repo.MarkMessagesRead(applicationID, models.CounterpartSenderType(recipientType), time.Now())
}

// UnreadCount counts counterpart messages without a read receipt in one
// conversation.
func (g *Gate) UnreadCount(p authz.Principal, applicationID uint) (int64, error) {
	_, creatorID, businessID, err := g.resolve(applicationID)
	if err != nil {
		return 0, err
	}
	if err := authz.RequireParticipant(p, creatorID, businessID); err != nil {
		return 0, err
	}
	recipientType, err := participantType(p, creatorID, businessID)
	if err != nil {
		return 0, err
	}
	return g.repo.CountUnread(applicationID, models.CounterpartSenderType(recipientType))
}

// TotalUnread aggregates unread counterpart messages across the caller's
// active conversations. Conversations whose application has left
// accepted/engaged are excluded by construction: the id set is resolved
// against current status, not cached.
func (g *Gate) TotalUnread(p authz.Principal) (int64, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return 0, err
	}
	var userType string
	switch p.Role {
	case authz.RoleCreator:
		userType = models.SenderTypeCreator
	case authz.RoleBusiness:
		userType = models.SenderTypeBusiness
	default:
		return 0, faults.Forbiddenf("no conversations for role %s", p.Role)
	}

	ids, err := g.repo.ListActiveApplicationIDs(userType, p.ID)
	if err != nil {
		return 0, err
	}
	return g.repo.CountUnreadForApplications(ids, models.CounterpartSenderType(userType))
}

// participantType identifies which side of the conversation the principal
// is. Admins are read-only observers and have no side.
func participantType(p authz.Principal, creatorID, businessID uint) (string, error) {
	switch {
	case p.Role == authz.RoleCreator && p.ID == creatorID:
		return models.SenderTypeCreator, nil
	case p.Role == authz.RoleBusiness && p.ID == businessID:
		return models.SenderTypeBusiness, nil
	default:
		return "", faults.Forbiddenf("principal is not a conversation participant")
	}
}
