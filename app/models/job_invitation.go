package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	InvitationStatusPending   = "pending"
	InvitationStatusAccepted  = "accepted"
	InvitationStatusRejected  = "rejected"
	InvitationStatusCancelled = "cancelled"
)

// JobInvitation is a business-initiated engagement offer to a creator.
// The Active column mirrors the JobApplication idiom: true while pending,
// NULL once responded or cancelled, so the unique index admits at most one
// open invitation per (job, creator).
type JobInvitation struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	JobID       uint       `gorm:"not null;index;index:ux_job_invitations_live_pair,unique,priority:1" json:"job_id"`
	Job         Job        `gorm:"foreignKey:JobID" json:"job,omitempty"`
	BusinessID  uint       `gorm:"not null;index" json:"business_id"`
	CreatorID   uint       `gorm:"not null;index;index:ux_job_invitations_live_pair,unique,priority:2" json:"creator_id"`
	Creator     Creator    `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Message     string     `gorm:"type:text" json:"message" validate:"max=5000"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending accepted rejected cancelled"`
	Active      *bool      `gorm:"index:ux_job_invitations_live_pair,unique,priority:3" json:"-"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	RespondedAt *time.Time `gorm:"type:timestamp;default:null" json:"responded_at,omitempty"`
}

func (i *JobInvitation) Validate() error {
	v := validator.New()

	return v.Struct(i)
}

// InvitationStatusFinal reports whether an invitation status permits no
// further transitions.
func InvitationStatusFinal(status string) bool {
	return status != InvitationStatusPending
}
