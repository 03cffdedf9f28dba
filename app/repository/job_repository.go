package repository

import (
	"strings"

	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
)

// jobRepository implements the JobRepository interface
type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

// Create creates a new job in the database
func (r *jobRepository) Create(job *models.Job) error {
	return r.db.Create(job).Error
}

// GetByID retrieves a job by its ID
func (r *jobRepository) GetByID(id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.First(&job, id).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByUUID retrieves a job by its public UUID
func (r *jobRepository) GetByUUID(uuid string) (*models.Job, error) {
	var job models.Job
	err := r.db.Where("uuid = ?", uuid).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetByBusinessID retrieves all jobs posted by a business, newest first
func (r *jobRepository) GetByBusinessID(businessID uint) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

// FindOpenJobs returns the public board: open jobs matching the filter plus
// the unpaginated match count.
func (r *jobRepository) FindOpenJobs(filter JobFilter) ([]models.Job, int64, error) {
	query := r.db.Model(&models.Job{}).Where("status = ?", models.JobStatusOpen)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.BudgetType != "" {
		query = query.Where("budget_type = ?", filter.BudgetType)
	}
	if filter.ExperienceLevel != "" {
		query = query.Where("experience_level = ?", filter.ExperienceLevel)
	}
	if filter.Search != "" {
		pattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var jobs []models.Job
	err := query.Order("created_at DESC").Offset(filter.Offset).Limit(limit).Find(&jobs).Error
	return jobs, total, err
}

// List retrieves a paginated list of jobs. includeAll keeps pending, rejected
// and deleted jobs in the result, which only admin callers should request.
func (r *jobRepository) List(offset, limit int, includeAll bool) ([]models.Job, error) {
	var jobs []models.Job
	query := r.db.Order("created_at DESC").Offset(offset).Limit(limit)
	if !includeAll {
		query = query.Where("status NOT IN ?", []string{models.JobStatusPending, models.JobStatusRejected, models.JobStatusDeleted})
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

// Count returns the number of jobs visible under the same rule as List
func (r *jobRepository) Count(includeAll bool) (int64, error) {
	var count int64
	query := r.db.Model(&models.Job{})
	if !includeAll {
		query = query.Where("status NOT IN ?", []string{models.JobStatusPending, models.JobStatusRejected, models.JobStatusDeleted})
	}
	err := query.Count(&count).Error
	return count, err
}
