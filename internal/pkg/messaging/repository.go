package messaging

import (
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the messaging gate.
type Repository interface {
	GetApplication(id uint) (*models.JobApplication, error)
	GetJob(id uint) (*models.Job, error)
	CreateMessage(m *models.JobMessage) error
	ListMessages(applicationID uint) ([]models.JobMessage, error)
	// MarkMessagesRead stamps read_at on the unread messages a given sender
	// type wrote in one conversation. Only NULL read_at rows are touched,
	// which makes the receipt monotone and the call idempotent.
	MarkMessagesRead(applicationID uint, senderType string, readAt time.Time) (int64, error)
	CountUnread(applicationID uint, senderType string) (int64, error)
	// ListActiveApplicationIDs resolves the conversations a participant may
	// aggregate over: applications in accepted/engaged where the user is the
	// creator, or the owner of the job for businesses.
	ListActiveApplicationIDs(userType string, userID uint) ([]uint, error)
	CountUnreadForApplications(applicationIDs []uint, senderType string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a messaging repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetApplication(id uint) (*models.JobApplication, error) {
	var app models.JobApplication
	if err := r.db.First(&app, id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *gormRepository) GetJob(id uint) (*models.Job, error) {
	var job models.Job
	if err := r.db.First(&job, id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *gormRepository) CreateMessage(m *models.JobMessage) error {
	return r.db.Create(m).Error
}

func (r *gormRepository) ListMessages(applicationID uint) ([]models.JobMessage, error) {
	var msgs []models.JobMessage
	err := r.db.
		Where("application_id = ?", applicationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *gormRepository) MarkMessagesRead(applicationID uint, senderType string, readAt time.Time) (int64, error) {
	tx := r.db.Model(&models.JobMessage{}).
		Where("application_id = ? AND sender_type = ? AND read_at IS NULL", applicationID, senderType).
		Update("read_at", readAt)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) CountUnread(applicationID uint, senderType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.JobMessage{}).
		Where("application_id = ? AND sender_type = ? AND read_at IS NULL", applicationID, senderType).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) ListActiveApplicationIDs(userType string, userID uint) ([]uint, error) {
	activeStatuses := []string{models.ApplicationStatusAccepted, models.ApplicationStatusEngaged}
	var ids []uint
	var err error
	switch userType {
	case models.SenderTypeCreator:
		err = r.db.Model(&models.JobApplication{}).
			Where("creator_id = ? AND status IN ?", userID, activeStatuses).
			Pluck("id", &ids).Error
	case models.SenderTypeBusiness:
		err = r.db.Model(&models.JobApplication{}).
			Joins("JOIN jobs ON jobs.id = job_applications.job_id").
			Where("jobs.business_id = ? AND job_applications.status IN ?", userID, activeStatuses).
			Pluck("job_applications.id", &ids).Error
	}
	return ids, err
}

func (r *gormRepository) CountUnreadForApplications(applicationIDs []uint, senderType string) (int64, error) {
	if len(applicationIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.JobMessage{}).
		Where("application_id IN ? AND sender_type = ? AND read_at IS NULL", applicationIDs, senderType).
		Count(&count).Error
	return count, err
}
