package engagement

import (
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the engagement service.
// Transition methods are conditional updates: they only apply when the
// persisted status is still in the allowed set, and report whether a row
// was touched. That re-validates every transition against current state at
// write time instead of trusting a value read earlier in the request.
type Repository interface {
	GetJob(id uint) (*models.Job, error)
	TransitionJob(id uint, from []string, to string) (bool, error)
	UpdateJobFields(id uint, updates map[string]interface{}) (bool, error)

	GetApplication(id uint) (*models.JobApplication, error)
	GetBlockingApplication(jobID, creatorID uint) (*models.JobApplication, error)
	CreateApplication(app *models.JobApplication) error
	TransitionApplication(id uint, from []string, to string) (bool, error)
	ListApplicationsByJob(jobID uint) ([]models.JobApplication, error)
	ListApplicationsByCreator(creatorID uint) ([]models.JobApplication, error)
	CancelLiveApplicationsByJob(jobID uint) (int64, error)

	GetInvitation(id uint) (*models.JobInvitation, error)
	GetOpenInvitation(jobID, creatorID uint) (*models.JobInvitation, error)
	CreateInvitation(inv *models.JobInvitation) error
	TransitionInvitation(id uint, from []string, to string, respondedAt *time.Time) (bool, error)
	ListInvitationsByCreator(creatorID uint) ([]models.JobInvitation, error)
	ListInvitationsByBusiness(businessID uint) ([]models.JobInvitation, error)
	CancelOpenInvitationsByJob(jobID uint) (int64, error)

	FindUnlinkedAcceptedInvitations() ([]models.JobInvitation, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates an engagement repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetJob(id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *gormRepository) TransitionJob(id uint, from []string, to string) (bool, error) {
	tx := r.db.Model(&models.Job{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

// UpdateJobFields writes editable job columns, refusing deleted rows so a
// delete that committed after the caller's read cannot be overwritten.
func (r *gormRepository) UpdateJobFields(id uint, updates map[string]interface{}) (bool, error) {
	tx := r.db.Model(&models.Job{}).
		Where("id = ? AND status <> ?", id, models.JobStatusDeleted).
		Updates(updates)
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) GetApplication(id uint) (*models.JobApplication, error) {
	var app models.JobApplication
	if err := r.db.First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *gormRepository) GetBlockingApplication(jobID, creatorID uint) (*models.JobApplication, error) {
	var app models.JobApplication
	err := r.db.
		Where("job_id = ? AND creator_id = ? AND active IS NOT NULL", jobID, creatorID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *gormRepository) CreateApplication(app *models.JobApplication) error {
	return r.db.Create(app).Error
}

func (r *gormRepository) TransitionApplication(id uint, from []string, to string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if !models.ApplicationBlocksPair(to) {
		updates["active"] = gorm.Expr("NULL")
	}
	tx := r.db.Model(&models.JobApplication{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) ListApplicationsByJob(jobID uint) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := r.db.Where("job_id = ?", jobID).Order("created_at DESC").Find(&apps).Error
	return apps, err
}

func (r *gormRepository) ListApplicationsByCreator(creatorID uint) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := r.db.Where("creator_id = ?", creatorID).Order("created_at DESC").Find(&apps).Error
	return apps, err
}

func (r *gormRepository) CancelLiveApplicationsByJob(jobID uint) (int64, error) {
	tx := r.db.Model(&models.JobApplication{}).
		Where("job_id = ? AND status NOT IN ?", jobID, []string{
			models.ApplicationStatusCompleted,
			models.ApplicationStatusRejected,
			models.ApplicationStatusWithdrawn,
			models.ApplicationStatusCancelled,
		}).
		Updates(map[string]interface{}{
			"status": models.ApplicationStatusCancelled,
			"active": gorm.Expr("NULL"),
		})
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) GetInvitation(id uint) (*models.JobInvitation, error) {
	var inv models.JobInvitation
	if err := r.db.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *gormRepository) GetOpenInvitation(jobID, creatorID uint) (*models.JobInvitation, error) {
	var inv models.JobInvitation
	err := r.db.
		Where("job_id = ? AND creator_id = ? AND active IS NOT NULL", jobID, creatorID).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *gormRepository) CreateInvitation(inv *models.JobInvitation) error {
	return r.db.Create(inv).Error
}

func (r *gormRepository) TransitionInvitation(id uint, from []string, to string, respondedAt *time.Time) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if to != models.InvitationStatusPending {
		updates["active"] = gorm.Expr("NULL")
	}
	if respondedAt != nil {
		updates["responded_at"] = respondedAt
	}
	tx := r.db.Model(&models.JobInvitation{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return tx.RowsAffected > 0, tx.Error
}

func (r *gormRepository) ListInvitationsByCreator(creatorID uint) ([]models.JobInvitation, error) {
	var invs []models.JobInvitation
	err := r.db.Where("creator_id = ?", creatorID).Order("created_at DESC").Find(&invs).Error
	return invs, err
}

func (r *gormRepository) ListInvitationsByBusiness(businessID uint) ([]models.JobInvitation, error) {
	var invs []models.JobInvitation
	err := r.db.Where("business_id = ?", businessID).Order("created_at DESC").Find(&invs).Error
	return invs, err
}

func (r *gormRepository) CancelOpenInvitationsByJob(jobID uint) (int64, error) {
	tx := r.db.Model(&models.JobInvitation{}).
		Where("job_id = ? AND status = ?", jobID, models.InvitationStatusPending).
		Updates(map[string]interface{}{
			"status": models.InvitationStatusCancelled,
			"active": gorm.Expr("NULL"),
		})
	return tx.RowsAffected, tx.Error
}

// FindUnlinkedAcceptedInvitations returns accepted invitations whose
// (job, creator) pair has no application row. These are the recoverable
// inconsistencies an interrupted invitation accept can leave behind.
func (r *gormRepository) FindUnlinkedAcceptedInvitations() ([]models.JobInvitation, error) {
	var invs []models.JobInvitation
	err := r.db.
		Where("status = ?", models.InvitationStatusAccepted).
		Where("NOT EXISTS (SELECT 1 FROM job_applications a WHERE a.job_id = job_invitations.job_id AND a.creator_id = job_invitations.creator_id)").
		Find(&invs).Error
	return invs, err
}
