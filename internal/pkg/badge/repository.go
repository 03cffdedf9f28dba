package badge

import (
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the badge tracker.
type Repository interface {
	GetMarker(userType string, userID uint, scope string) (*models.ViewMarker, error)
	UpsertMarker(marker *models.ViewMarker) error
	CountApplicationsToBusinessSince(businessID uint, since time.Time) (int64, error)
	CountInvitationsToCreatorSince(creatorID uint, since time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a badge repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetMarker(userType string, userID uint, scope string) (*models.ViewMarker, error) {
	var marker models.ViewMarker
	err := r.db.
		Where("user_type = ? AND user_id = ? AND scope = ?", userType, userID, scope).
		First(&marker).Error
	if err != nil {
		return nil, err
	}
	return &marker, nil
}

func (r *gormRepository) UpsertMarker(marker *models.ViewMarker) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_type"},
			{Name: "user_id"},
			{Name: "scope"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"last_viewed_at", "updated_at"}),
	}).Create(marker).Error
}

func (r *gormRepository) CountApplicationsToBusinessSince(businessID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.JobApplication{}).
		Joins("JOIN jobs ON jobs.id = job_applications.job_id").
		Where("jobs.business_id = ? AND job_applications.created_at > ?", businessID, since).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CountInvitationsToCreatorSince(creatorID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.JobInvitation{}).
		Where("creator_id = ? AND created_at > ?", creatorID, since).
		Count(&count).Error
	return count, err
}
