package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusEngaged   = "engaged"
	ApplicationStatusCompleted = "completed"
	ApplicationStatusRejected  = "rejected"
	ApplicationStatusWithdrawn = "withdrawn"
	ApplicationStatusCancelled = "cancelled"
)

// JobApplication is a creator-initiated engagement request on a job.
//
// The Active column backs the uniqueness invariant "at most one live
// application per (job, creator)": it is true while the application holds
// the pair and NULL once withdrawn/rejected/cancelled, so the composite
// unique index only ever sees one live row per pair. MySQL has no partial
// indexes; this is the standard workaround. The insert is the correctness
// mechanism under concurrency, pre-checks only produce friendlier errors.
type JobApplication struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	JobID             uint           `gorm:"not null;index;index:ux_job_applications_live_pair,unique,priority:1" json:"job_id"`
	Job               Job            `gorm:"foreignKey:JobID" json:"job,omitempty"`
	CreatorID         uint           `gorm:"not null;index;index:ux_job_applications_live_pair,unique,priority:2" json:"creator_id"`
	Creator           Creator        `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	CoverLetter       string         `gorm:"type:text" json:"cover_letter" validate:"required,max=10000"`
	ProposedPrice     float64        `gorm:"type:decimal(12,2);not null" json:"proposed_price" validate:"gte=0"`
	EstimatedDuration string         `gorm:"type:varchar(100);default:null" json:"estimated_duration,omitempty"`
	Status            string         `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending accepted engaged completed rejected withdrawn cancelled"`
	Active            *bool          `gorm:"index:ux_job_applications_live_pair,unique,priority:3" json:"-"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *JobApplication) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// ApplicationBlocksPair reports whether an application in this status still
// occupies the (job, creator) pair. Withdrawn, cancelled and rejected rows
// release the pair; pending, accepted, engaged and completed rows hold it.
func ApplicationBlocksPair(status string) bool {
	switch status {
	case ApplicationStatusWithdrawn, ApplicationStatusCancelled, ApplicationStatusRejected:
		return false
	default:
		return true
	}
}

// ApplicationStatusFinal reports whether a status permits no further
// transitions.
func ApplicationStatusFinal(status string) bool {
	switch status {
	case ApplicationStatusCompleted, ApplicationStatusRejected, ApplicationStatusWithdrawn, ApplicationStatusCancelled:
		return true
	default:
		return false
	}
}

// ConversationActive reports whether the gated message channel for this
// application accepts writes.
func (a *JobApplication) ConversationActive() bool {
	return a.Status == ApplicationStatusAccepted || a.Status == ApplicationStatusEngaged
}
