package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Review is a moderated business→creator rating. The unique index enforces
// first-write-wins: one review per pair, duplicates fail at insert.
type Review struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	BusinessID      uint       `gorm:"not null;index:ux_reviews_pair,unique,priority:1" json:"business_id"`
	Business        Business   `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	CreatorID       uint       `gorm:"not null;index;index:ux_reviews_pair,unique,priority:2" json:"creator_id"`
	Creator         Creator    `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Rating          int        `gorm:"not null" json:"rating" validate:"gte=1,lte=5"`
	Comment         string     `gorm:"type:text" json:"comment" validate:"max=5000"`
	Status          string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status" validate:"oneof=pending approved rejected"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	Reply           string     `gorm:"type:text" json:"reply,omitempty"`
	ReplyDate       *time.Time `gorm:"type:timestamp;default:null" json:"reply_date,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Review) Validate() error {
	v := validator.New()

	return v.Struct(r)
}
