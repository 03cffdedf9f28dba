package engagement

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"gorm.io/gorm"
)

// Service owns the application/invitation state machine: creation guards,
// the transition matrix, the invitation-accept unit and the job deletion
// cascade.
type Service struct {
	repo Repository
}

// NewService creates an engagement service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates an engagement service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// ApplicationInput is the creator-supplied part of a new application.
type ApplicationInput struct {
	JobID             uint    `json:"job_id"`
	CoverLetter       string  `json:"cover_letter"`
	ProposedPrice     float64 `json:"proposed_price"`
	EstimatedDuration string  `json:"estimated_duration"`
}

// JobEdit carries the editable job fields. Empty strings and nil pointers
// leave the current value unchanged.
type JobEdit struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Category            string     `json:"category"`
	Platforms           string     `json:"platforms"`
	BudgetType          string     `json:"budget_type"`
	BudgetMin           *float64   `json:"budget_min"`
	BudgetMax           *float64   `json:"budget_max"`
	Duration            string     `json:"duration"`
	ExperienceLevel     string     `json:"experience_level"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
}

// InvitationInput is the business-supplied part of a new invitation.
type InvitationInput struct {
	JobID     uint   `json:"job_id"`
	CreatorID uint   `json:"creator_id"`
	Message   string `json:"message"`
}

// AcceptResult reports the outcome of accepting an invitation. The
// invitation flip is authoritative; Application/JobClosed describe the
// follow-up steps and Warning carries a recoverable-inconsistency note when
// one of them failed (the reconciliation query finds those later).
type AcceptResult struct {
	Invitation  *models.JobInvitation  `json:"invitation"`
	Application *models.JobApplication `json:"application,omitempty"`
	JobClosed   bool                   `json:"job_closed"`
	Warning     string                 `json:"warning,omitempty"`
}

// CascadeResult enumerates the outcome of a job soft-delete so callers (and
// the admin reconciliation path) can act on partial failures instead of
// digging through logs.
type CascadeResult struct {
	ApplicationsCancelled int64  `json:"applications_cancelled"`
	ApplicationsError     string `json:"applications_error,omitempty"`
	InvitationsCancelled  int64  `json:"invitations_cancelled"`
	InvitationsError      string `json:"invitations_error,omitempty"`
	JobDeleted            bool   `json:"job_deleted"`
}

// UpdateJob edits a job's fields for its owner (or an admin). The write only
// applies while the persisted row is not deleted, so a delete committing
// between the read and the write cannot be overwritten.
func (s *Service) UpdateJob(p authz.Principal, id uint, in JobEdit) (*models.Job, error) {
	job, err := s.repo.GetJob(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
		return nil, err
	}
	if job.IsTerminal() {
		return nil, faults.Conflictf("deleted jobs cannot be edited")
	}

	if in.Title != "" {
		job.Title = in.Title
	}
	if in.Description != "" {
		job.Description = in.Description
	}
	if in.Category != "" {
		job.Category = in.Category
	}
	if in.Platforms != "" {
		job.Platforms = in.Platforms
	}
	if in.BudgetType != "" {
		job.BudgetType = in.BudgetType
	}
	if in.BudgetMin != nil {
		job.BudgetMin = in.BudgetMin
	}
	if in.BudgetMax != nil {
		job.BudgetMax = in.BudgetMax
	}
	if in.Duration != "" {
		job.Duration = in.Duration
	}
	if in.ExperienceLevel != "" {
		job.ExperienceLevel = in.ExperienceLevel
	}
	if in.ApplicationDeadline != nil {
		job.ApplicationDeadline = in.ApplicationDeadline
	}
	if err := job.Validate(); err != nil {
		return nil, faults.Invalidf("invalid job: %v", err)
	}

	ok, err := s.repo.UpdateJobFields(id, map[string]interface{}{
		"title":                job.Title,
		"description":          job.Description,
		"category":             job.Category,
		"platforms":            job.Platforms,
		"budget_type":          job.BudgetType,
		"budget_min":           job.BudgetMin,
		"budget_max":           job.BudgetMax,
		"duration":             job.Duration,
		"experience_level":     job.ExperienceLevel,
		"application_deadline": job.ApplicationDeadline,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, faults.Conflictf("deleted jobs cannot be edited")
	}
	return s.repo.GetJob(id)
}

// nonDeletedJobStatuses is every status a direct flip may start from;
// deleted is terminal and only reachable through DeleteJob.
var nonDeletedJobStatuses = []string{
	models.JobStatusPending,
	models.JobStatusOpen,
	models.JobStatusClosed,
	models.JobStatusCompleted,
	models.JobStatusRejected,
}

// SetJobStatus changes a job's lifecycle status directly. Admins moderate
// pending jobs to open or rejected; owners (and admins) reopen a closed job
// or mark a job completed. The flip is a conditional update, so a status
// that changed after the read surfaces as a Conflict instead of being
// overwritten.
func (s *Service) SetJobStatus(p authz.Principal, id uint, target string) (*models.Job, error) {
	job, err := s.repo.GetJob(id)
	if err != nil {
		return nil, notFoundOr(err)
	}

	var allowedFrom []string
	switch {
	case job.Status == models.JobStatusPending &&
		(target == models.JobStatusOpen || target == models.JobStatusRejected):
		// Moderation decision.
		if err := authz.RequireAdmin(p); err != nil {
			return nil, err
		}
		allowedFrom = []string{models.JobStatusPending}
	case job.Status == models.JobStatusClosed && target == models.JobStatusOpen:
		// Reopen after an engagement fell through.
		if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
			return nil, err
		}
		allowedFrom = []string{models.JobStatusClosed}
	case job.Status != models.JobStatusDeleted && target == models.JobStatusCompleted:
		if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
			return nil, err
		}
		allowedFrom = nonDeletedJobStatuses
	default:
		return nil, faults.Conflictf("cannot change job status from %s to %s", job.Status, target)
	}

	ok, err := s.repo.TransitionJob(id, allowedFrom, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := s.repo.GetJob(id)
		if rerr != nil {
			return nil, notFoundOr(rerr)
		}
		return nil, faults.Conflictf("cannot change job status from %s to %s", current.Status, target)
	}
	return s.repo.GetJob(id)
}

// Apply creates a pending application for the calling creator on an open
// job. The existence pre-checks give friendly errors; the unique index on
// (job_id, creator_id, active) is what actually holds under concurrency,
// so a duplicated-key insert is reported as the same Conflict.
func (s *Service) Apply(p authz.Principal, in ApplicationInput) (*models.JobApplication, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.Role != authz.RoleCreator {
		return nil, faults.Forbiddenf("only creators can apply to jobs")
	}

	job, err := s.repo.GetJob(in.JobID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if job.Status != models.JobStatusOpen {
		return nil, faults.Conflictf("job is not open for applications (status %s)", job.Status)
	}

	if existing, err := s.repo.GetBlockingApplication(in.JobID, p.ID); err == nil && existing != nil {
		return nil, faults.Conflictf("an application for this job already exists (status %s)", existing.Status)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if inv, err := s.repo.GetOpenInvitation(in.JobID, p.ID); err == nil && inv != nil {
		return nil, faults.Conflictf("an open invitation for this job already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	active := true
	app := &models.JobApplication{
		JobID:             in.JobID,
		CreatorID:         p.ID,
		CoverLetter:       in.CoverLetter,
		ProposedPrice:     in.ProposedPrice,
		EstimatedDuration: in.EstimatedDuration,
		Status:            models.ApplicationStatusPending,
		Active:            &active,
	}
	if err := app.Validate(); err != nil {
		return nil, faults.Invalidf("invalid application: %v", err)
	}
	if err := s.repo.CreateApplication(app); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, faults.Conflictf("an application for this job already exists")
		}
		return nil, err
	}
	return app, nil
}

// TransitionApplication applies one step of the application state machine on
// behalf of the given principal. Engaging and cancelling are system-side
// effects (invitation accept, job deletion) and cannot be requested here.
func (s *Service) TransitionApplication(p authz.Principal, id uint, target string) (*models.JobApplication, error) {
	app, err := s.repo.GetApplication(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	job, err := s.repo.GetJob(app.JobID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	var allowedFrom []string
	switch target {
	case models.ApplicationStatusWithdrawn:
		// Application-owner only: withdrawing is the single transition a
		// creator may perform, engaging is a business-side decision.
		if err := authz.RequireCreatorOwner(p, app.CreatorID); err != nil {
			return nil, err
		}
		allowedFrom = []string{models.ApplicationStatusPending}
	case models.ApplicationStatusAccepted:
		if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
			return nil, err
		}
		allowedFrom = []string{models.ApplicationStatusPending}
	case models.ApplicationStatusRejected:
		if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
			return nil, err
		}
		allowedFrom = []string{models.ApplicationStatusPending, models.ApplicationStatusAccepted}
	case models.ApplicationStatusCompleted:
		if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
			return nil, err
		}
		allowedFrom = []string{models.ApplicationStatusAccepted, models.ApplicationStatusEngaged}
	default:
		return nil, faults.Invalidf("status %q cannot be requested", target)
	}

	ok, err := s.repo.TransitionApplication(id, allowedFrom, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := s.repo.GetApplication(id)
		if rerr != nil {
			return nil, notFoundOr(rerr)
		}
		return nil, faults.Conflictf("cannot transition application from %s to %s", current.Status, target)
	}
	return s.repo.GetApplication(id)
}

// ListApplicationsForJob returns a job's applications for its owning
// business (or an admin).
func (s *Service) ListApplicationsForJob(p authz.Principal, jobID uint) ([]models.JobApplication, error) {
	job, err := s.repo.GetJob(jobID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
		return nil, err
	}
	return s.repo.ListApplicationsByJob(jobID)
}

// ListOwnApplications returns the calling creator's applications.
func (s *Service) ListOwnApplications(p authz.Principal) ([]models.JobApplication, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if p.Role != authz.RoleCreator {
		return nil, faults.Forbiddenf("only creators have applications")
	}
	return s.repo.ListApplicationsByCreator(p.ID)
}

// Invite creates a pending invitation from the job's owning business to a
// creator. An active applicant cannot simultaneously be invited, and vice
// versa; the unique index backs the invitation half of that under
// concurrency.
func (s *Service) Invite(p authz.Principal, in InvitationInput) (*models.JobInvitation, error) {
	job, err := s.repo.GetJob(in.JobID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOpen {
		return nil, faults.Conflictf("job is not open for invitations (status %s)", job.Status)
	}

	if inv, err := s.repo.GetOpenInvitation(in.JobID, in.CreatorID); err == nil && inv != nil {
		return nil, faults.Conflictf("an open invitation for this creator already exists")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if app, err := s.repo.GetBlockingApplication(in.JobID, in.CreatorID); err == nil && app != nil {
		return nil, faults.Conflictf("creator already has an application for this job (status %s)", app.Status)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	active := true
	inv := &models.JobInvitation{
		JobID:      in.JobID,
		BusinessID: job.BusinessID,
		CreatorID:  in.CreatorID,
		Message:    in.Message,
		Status:     models.InvitationStatusPending,
		Active:     &active,
	}
	if err := inv.Validate(); err != nil {
		return nil, faults.Invalidf("invalid invitation: %v", err)
	}
	if err := s.repo.CreateInvitation(inv); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, faults.Conflictf("an open invitation for this creator already exists")
		}
		return nil, err
	}
	return inv, nil
}

// AcceptInvitation flips a pending invitation to accepted and, as follow-up
// steps, creates an engaged application and closes the job. The follow-ups
// are best-effort: their failure leaves a detectable inconsistency (see
// FindUnlinkedAcceptedInvitations), reported via the Warning field rather
// than failing the accept.
func (s *Service) AcceptInvitation(p authz.Principal, id uint) (*AcceptResult, error) {
	inv, err := s.repo.GetInvitation(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := authz.RequireCreatorOwner(p, inv.CreatorID); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.repo.TransitionInvitation(id, []string{models.InvitationStatusPending}, models.InvitationStatusAccepted, &now)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := s.repo.GetInvitation(id)
		if rerr != nil {
			return nil, notFoundOr(rerr)
		}
		return nil, faults.Conflictf("invitation is already %s", current.Status)
	}

	inv.Status = models.InvitationStatusAccepted
	inv.RespondedAt = &now
	result := &AcceptResult{Invitation: inv}

	job, err := s.repo.GetJob(inv.JobID)
	if err != nil {
		result.Warning = fmt.Sprintf("application linking failed: %v", err)
		log.Printf("invitation %d accepted but job %d lookup failed: %v", inv.ID, inv.JobID, err)
		return result, nil
	}

	active := true
	app := &models.JobApplication{
		JobID:         inv.JobID,
		CreatorID:     inv.CreatorID,
		CoverLetter:   fmt.Sprintf("Created from accepted invitation #%d", inv.ID),
		ProposedPrice: job.DefaultProposedPrice(),
		Status:        models.ApplicationStatusEngaged,
		Active:        &active,
	}
	if err := s.repo.CreateApplication(app); err != nil {
		result.Warning = fmt.Sprintf("application linking failed: %v", err)
		log.Printf("invitation %d accepted but application creation failed: %v", inv.ID, err)
	} else {
		result.Application = app
	}

	closed, err := s.repo.TransitionJob(inv.JobID, []string{models.JobStatusPending, models.JobStatusOpen}, models.JobStatusClosed)
	if err != nil {
		if result.Warning == "" {
			result.Warning = fmt.Sprintf("job close failed: %v", err)
		}
		log.Printf("invitation %d accepted but job %d close failed: %v", inv.ID, inv.JobID, err)
		return result, nil
	}
	// Not closing because the job already left open/pending is fine.
	result.JobClosed = closed || job.Status == models.JobStatusClosed
	return result, nil
}

// RejectInvitation lets the invited creator turn down a pending invitation.
func (s *Service) RejectInvitation(p authz.Principal, id uint) (*models.JobInvitation, error) {
	return s.respondInvitation(p, id, models.InvitationStatusRejected)
}

func (s *Service) respondInvitation(p authz.Principal, id uint, target string) (*models.JobInvitation, error) {
	inv, err := s.repo.GetInvitation(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := authz.RequireCreatorOwner(p, inv.CreatorID); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := s.repo.TransitionInvitation(id, []string{models.InvitationStatusPending}, target, &now)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := s.repo.GetInvitation(id)
		if rerr != nil {
			return nil, notFoundOr(rerr)
		}
		return nil, faults.Conflictf("invitation is already %s", current.Status)
	}
	return s.repo.GetInvitation(id)
}

// CancelInvitation lets the inviting business withdraw a pending invitation.
func (s *Service) CancelInvitation(p authz.Principal, id uint) (*models.JobInvitation, error) {
	inv, err := s.repo.GetInvitation(id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := authz.RequireBusinessOwner(p, inv.BusinessID); err != nil {
		return nil, err
	}

	ok, err := s.repo.TransitionInvitation(id, []string{models.InvitationStatusPending}, models.InvitationStatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, rerr := s.repo.GetInvitation(id)
		if rerr != nil {
			return nil, notFoundOr(rerr)
		}
		return nil, faults.Conflictf("invitation is already %s", current.Status)
	}
	return s.repo.GetInvitation(id)
}

// ListInvitations returns the caller's invitations: received for creators,
// sent for businesses.
func (s *Service) ListInvitations(p authz.Principal) ([]models.JobInvitation, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	switch p.Role {
	case authz.RoleCreator:
		return s.repo.ListInvitationsByCreator(p.ID)
	case authz.RoleBusiness:
		return s.repo.ListInvitationsByBusiness(p.ID)
	default:
		return nil, faults.Forbiddenf("no invitation listing for role %s", p.Role)
	}
}

// DeleteJob soft-deletes a job, cascading a cancelled status onto its live
// applications and open invitations first. The cascade is best-effort: a
// child failure is recorded in the result and does not block the parent
// status flip, which is the user-facing source of truth.
func (s *Service) DeleteJob(p authz.Principal, jobID uint) (*CascadeResult, error) {
	job, err := s.repo.GetJob(jobID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
		return nil, err
	}

	result := &CascadeResult{}

	n, err := s.repo.CancelLiveApplicationsByJob(jobID)
	if err != nil {
		result.ApplicationsError = err.Error()
		log.Printf("job %d delete: application cascade failed: %v", jobID, err)
	} else {
		result.ApplicationsCancelled = n
	}

	n, err = s.repo.CancelOpenInvitationsByJob(jobID)
	if err != nil {
		result.InvitationsError = err.Error()
		log.Printf("job %d delete: invitation cascade failed: %v", jobID, err)
	} else {
		result.InvitationsCancelled = n
	}

	ok, err := s.repo.TransitionJob(jobID, []string{
		models.JobStatusPending,
		models.JobStatusOpen,
		models.JobStatusClosed,
		models.JobStatusCompleted,
		models.JobStatusRejected,
	}, models.JobStatusDeleted)
	if err != nil {
		return result, err
	}
	if !ok {
		return result, faults.Conflictf("job is already deleted")
	}
	result.JobDeleted = true
	return result, nil
}

// FindUnlinkedAcceptedInvitations is the admin reconciliation query for
// invitation accepts whose application step was lost.
func (s *Service) FindUnlinkedAcceptedInvitations(p authz.Principal) ([]models.JobInvitation, error) {
	if err := authz.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.FindUnlinkedAcceptedInvitations()
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return faults.ErrNotFound
	}
	return err
}
