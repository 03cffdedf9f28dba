package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobStatusPending   = "pending"
	JobStatusOpen      = "open"
	JobStatusClosed    = "closed"
	JobStatusCompleted = "completed"
	JobStatusRejected  = "rejected"
	JobStatusDeleted   = "deleted"
)

const (
	BudgetTypeFixed  = "fixed"
	BudgetTypeHourly = "hourly"
)

type Job struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UUID                string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	BusinessID          uint       `gorm:"not null;index" json:"business_id"`
	Business            Business   `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	Title               string     `gorm:"type:varchar(200)" json:"title" validate:"required,min=3,max=200"`
	Description         string     `gorm:"type:text" json:"description" validate:"required,max=10000"`
	Category            string     `gorm:"type:varchar(100);index" json:"category" validate:"required,max=100"`
	Platforms           string     `gorm:"type:varchar(255)" json:"platforms"` // comma-separated platform slugs
	BudgetType          string     `gorm:"type:varchar(20);not null;default:'fixed'" json:"budget_type" validate:"oneof=fixed hourly"`
	BudgetMin           *float64   `gorm:"type:decimal(12,2);default:null" json:"budget_min,omitempty"`
	BudgetMax           *float64   `gorm:"type:decimal(12,2);default:null" json:"budget_max,omitempty"`
	Duration            string     `gorm:"type:varchar(100);default:null" json:"duration,omitempty"`
	ExperienceLevel     string     `gorm:"type:varchar(50);default:null" json:"experience_level,omitempty"`
	ApplicationDeadline *time.Time `gorm:"type:timestamp;default:null" json:"application_deadline,omitempty"`
	Status              string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending open closed completed rejected deleted"`
	CreatedAt           time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.UUID == "" {
		j.UUID = uuid.New().String()
	}
	return nil
}

func (j *Job) Validate() error {
	v := validator.New()

	return v.Struct(j)
}

// IsTerminal reports whether the job status permits no further transitions
// besides an explicit owner/admin reopen.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDeleted
}

// DefaultProposedPrice picks the budget value used when an invitation accept
// synthesizes an application: the upper bound when present, else the lower.
func (j *Job) DefaultProposedPrice() float64 {
	if j.BudgetMax != nil {
		return *j.BudgetMax
	}
	if j.BudgetMin != nil {
		return *j.BudgetMin
	}
	return 0
}
