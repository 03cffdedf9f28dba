package billing

import (
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the webhook reconciler.
// Transaction hands the callback a Repository bound to the transaction so
// the ledger insert and the effect mutation commit or roll back together.
type Repository interface {
	InsertEventIfNew(event *models.WebhookEvent) (bool, error)
	MarkEventProcessed(id uint, processingError string) error
	GetBusinessByStripeSubscriptionID(subscriptionID string) (*models.Business, error)
	UpdateBusinessSubscription(businessID uint, updates map[string]interface{}) error
	Transaction(fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InsertEventIfNew(event *models.WebhookEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) MarkEventProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) GetBusinessByStripeSubscriptionID(subscriptionID string) (*models.Business, error) {
	var business models.Business
	err := r.db.Where("stripe_subscription_id = ?", subscriptionID).First(&business).Error
	if err != nil {
		return nil, err
	}
	return &business, nil
}

func (r *gormRepository) UpdateBusinessSubscription(businessID uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Business{}).Where("id = ?", businessID).Updates(updates).Error
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
