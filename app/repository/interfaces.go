package repository

import (
	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
)

// JobFilter narrows public job listings. Zero values mean "no filter".
type JobFilter struct {
	Category        string
	BudgetType      string
	ExperienceLevel string
	Search          string
	Offset          int
	Limit           int
}

// JobRepository defines the interface for job-related database operations.
// Job status and field writes go through the engagement service's
// conditional updates, not through this interface.
type JobRepository interface {
	Create(job *models.Job) error
	GetByID(id uint) (*models.Job, error)
	GetByUUID(uuid string) (*models.Job, error)
	GetByBusinessID(businessID uint) ([]models.Job, error)
	FindOpenJobs(filter JobFilter) ([]models.Job, int64, error)
	List(offset, limit int, includeAll bool) ([]models.Job, error)
	Count(includeAll bool) (int64, error)
}

// BusinessRepository defines the interface for business account operations
type BusinessRepository interface {
	Create(business *models.Business) error
	GetByID(id uint) (*models.Business, error)
	GetByEmail(email string) (*models.Business, error)
}

// CreatorRepository defines the interface for creator account operations
type CreatorRepository interface {
	Create(creator *models.Creator) error
	GetByID(id uint) (*models.Creator, error)
	GetByEmail(email string) (*models.Creator, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	Job      JobRepository
	Business BusinessRepository
	Creator  CreatorRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Job:      NewJobRepository(db),
		Business: NewBusinessRepository(db),
		Creator:  NewCreatorRepository(db),
	}
}
