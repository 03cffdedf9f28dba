package reviews

import (
	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the review service.
type Repository interface {
	CreateReview(rev *models.Review) error
	GetReview(id uint) (*models.Review, error)
	UpdateReviewFields(id uint, updates map[string]interface{}) error
	ListByCreator(creatorID uint, onlyApproved bool) ([]models.Review, error)
	ListByBusiness(businessID uint) ([]models.Review, error)
	ListPending() ([]models.Review, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a review repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateReview(rev *models.Review) error {
	return r.db.Create(rev).Error
}

func (r *gormRepository) GetReview(id uint) (*models.Review, error) {
	var rev models.Review
	if err := r.db.First(&rev, id).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *gormRepository) UpdateReviewFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) ListByCreator(creatorID uint, onlyApproved bool) ([]models.Review, error) {
	var revs []models.Review
	query := r.db.Where("creator_id = ?", creatorID)
	if onlyApproved {
		query = query.Where("status = ?", models.ReviewStatusApproved)
	}
	err := query.Order("created_at DESC").Find(&revs).Error
	return revs, err
}

func (r *gormRepository) ListByBusiness(businessID uint) ([]models.Review, error) {
	var revs []models.Review
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").Find(&revs).Error
	return revs, err
}

func (r *gormRepository) ListPending() ([]models.Review, error) {
	var revs []models.Review
	err := r.db.Where("status = ?", models.ReviewStatusPending).Order("created_at ASC").Find(&revs).Error
	return revs, err
}
