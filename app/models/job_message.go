package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	SenderTypeBusiness = "business"
	SenderTypeCreator  = "creator"
)

// JobMessage is one entry in the gated conversation attached to an
// application. Rows are immutable after creation except for ReadAt, which
// moves NULL → timestamp exactly once.
type JobMessage struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ApplicationID uint       `gorm:"not null;index" json:"application_id"`
	SenderType    string     `gorm:"type:varchar(20);not null" json:"sender_type" validate:"oneof=business creator"`
	SenderID      uint       `gorm:"not null" json:"sender_id"`
	Message       string     `gorm:"type:text;not null" json:"message" validate:"required,max=10000"`
	ReadAt        *time.Time `gorm:"type:timestamp;default:null" json:"read_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (m *JobMessage) Validate() error {
	v := validator.New()

	return v.Struct(m)
}

// CounterpartSenderType returns the other side of a conversation.
func CounterpartSenderType(senderType string) string {
	if senderType == SenderTypeBusiness {
		return SenderTypeCreator
	}
	return SenderTypeBusiness
}
