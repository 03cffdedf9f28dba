package repository

import (
	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
)

// creatorRepository implements the CreatorRepository interface
type creatorRepository struct {
	db *gorm.DB
}

// NewCreatorRepository creates a new creator repository instance
func NewCreatorRepository(db *gorm.DB) CreatorRepository {
	return &creatorRepository{db: db}
}

// Create creates a new creator in the database
func (r *creatorRepository) Create(creator *models.Creator) error {
	return r.db.Create(creator).Error
}

// GetByID retrieves a creator by their ID
func (r *creatorRepository) GetByID(id uint) (*models.Creator, error) {
	var creator models.Creator
	err := r.db.First(&creator, id).Error
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

// GetByEmail retrieves a creator by their email address
func (r *creatorRepository) GetByEmail(email string) (*models.Creator, error) {
	var creator models.Creator
	err := r.db.Where("email = ?", email).First(&creator).Error
	if err != nil {
		return nil, err
	}
	return &creator, nil
}

