package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	SubscriptionNone        = "none"
	SubscriptionActive      = "active"
	SubscriptionExpired     = "expired"
	SubscriptionDeactivated = "deactivated"
)

const (
	SubscriptionTypeMonthly = "monthly"
	SubscriptionTypeYearly  = "yearly"
)

type Business struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	CompanyName          string         `gorm:"type:varchar(150)" json:"company_name" validate:"required,min=2,max=150"`
	Email                string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password             string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Website              string         `gorm:"type:varchar(255);default:null" json:"website" validate:"max=255"`
	About                string         `gorm:"type:text" json:"about" validate:"max=2000"`
	SubscriptionStatus   string         `gorm:"type:varchar(20);not null;default:'none';index" json:"subscription_status" validate:"oneof=none active expired deactivated"`
	SubscriptionType     string         `gorm:"type:varchar(20);default:null" json:"subscription_type,omitempty"`
	ExpiresAt            *time.Time     `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`
	StripeCustomerID     string         `gorm:"type:varchar(191);default:null;index" json:"-"`
	StripeSubscriptionID string         `gorm:"type:varchar(191);default:null;index" json:"-"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Business) Validate() error {
	v := validator.New()

	return v.Struct(b)
}

// CanPostJobs reports whether the business currently has job-posting access:
// an active subscription, or a not-yet-expired paid period after cancellation.
func (b *Business) CanPostJobs(now time.Time) bool {
	if b.SubscriptionStatus == SubscriptionActive {
		return true
	}
	return b.ExpiresAt != nil && b.ExpiresAt.After(now)
}

func CreateBusiness(companyName, email, password string) (*Business, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	b := &Business{
		CompanyName:        companyName,
		Email:              email,
		Password:           pw,
		SubscriptionStatus: SubscriptionNone,
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return b, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}
