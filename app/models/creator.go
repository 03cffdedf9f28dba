package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type Creator struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=2,max=150"`
	Email           string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password        string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Bio             string         `gorm:"type:text" json:"bio" validate:"max=2000"`
	Platforms       string         `gorm:"type:varchar(255)" json:"platforms"` // comma-separated platform slugs
	ExperienceLevel string         `gorm:"type:varchar(50);default:null" json:"experience_level,omitempty"`
	IsAdmin         bool           `gorm:"default:false" json:"is_admin"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (cr *Creator) Validate() error {
	v := validator.New()

	return v.Struct(cr)
}

func CreateCreator(name, email, password string) (*Creator, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	cr := &Creator{
		Name:     name,
		Email:    email,
		Password: pw,
	}

	if err := cr.Validate(); err != nil {
		return nil, err
	}

	return cr, nil
}
