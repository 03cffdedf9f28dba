package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gigbridge/gigbridge/app/models"
	"github.com/gigbridge/gigbridge/app/repository"
	"github.com/gigbridge/gigbridge/internal/pkg/authz"
	"github.com/gigbridge/gigbridge/internal/pkg/engagement"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type jobRequest struct {
	BusinessID          uint       `json:"business_id"`
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

func (r jobRequest) edit() engagement.JobEdit {
	return engagement.JobEdit{
		Title:               r.Title,
		Description:         r.Description,
		Category:            r.Category,
		Platforms:           r.Platforms,
		BudgetType:          r.BudgetType,
		BudgetMin:           r.BudgetMin,
		BudgetMax:           r.BudgetMax,
		Duration:            r.Duration,
		ExperienceLevel:     r.ExperienceLevel,
		ApplicationDeadline: r.ApplicationDeadline,
	}
}

// jobPoster resolves which business a new job is posted for and whether the
// subscription gate applies. Admins post on behalf of an explicit business
// and bypass the gate.
func jobPoster(p authz.Principal, requestedBusinessID uint) (uint, bool, error) {
	if err := authz.RequireAuthenticated(p); err != nil {
		return 0, false, err
	}
	switch p.Role {
	case authz.RoleAdmin:
		if requestedBusinessID == 0 {
			return 0, false, faults.Invalidf("business_id is required when posting as admin")
		}
		return requestedBusinessID, false, nil
	case authz.RoleBusiness:
		return p.ID, true, nil
	default:
		return 0, false, faults.Forbiddenf("only businesses can post jobs")
	}
}

// findJobByRef loads a job by numeric id or by its public uuid.
func findJobByRef(repo repository.JobRepository, ref string) (*models.Job, error) {
	if id, err := strconv.ParseUint(ref, 10, 32); err == nil && id > 0 {
		return repo.GetByID(uint(id))
	}
	if _, err := uuid.Parse(ref); err != nil {
		return nil, faults.Invalidf("invalid job reference %q", ref)
	}
	return repo.GetByUUID(ref)
}

// HandleListJobs serves the public job board: open jobs only, filterable.
func HandleListJobs(c *fiber.Ctx) error {
	filter := repository.JobFilter{
		Category:        c.Query("category"),
		BudgetType:      c.Query("budget_type"),
		ExperienceLevel: c.Query("experience_level"),
		Search:          c.Query("search"),
		Offset:          c.QueryInt("offset", 0),
		Limit:           c.QueryInt("limit", 20),
	}

	jobs, total, err := repository.GetGlobalFactory().GetJobRepository().FindOpenJobs(filter)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{
		"jobs":  jobs,
		"total": total,
	})
}

// HandleGetJob returns one job, addressed by numeric id or public uuid.
// Jobs outside the open status are only visible to their owner and admins.
func HandleGetJob(c *fiber.Ctx) error {
	job, err := findJobByRef(repository.GetGlobalFactory().GetJobRepository(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, faults.ErrNotFound)
		}
		return jsonError(c, err)
	}

	if job.Status != models.JobStatusOpen {
		p := usercontext.GetPrincipal(c)
		if err := authz.RequireBusinessOwner(p, job.BusinessID); err != nil {
			// Hidden jobs do not leak their existence.
			return jsonError(c, faults.ErrNotFound)
		}
	}
	return c.JSON(job)
}

// HandleCreateJob posts a new job. Businesses post for themselves and need
// an active (or still-paid) subscription; admins post on behalf of a
// business named in the body. New jobs start pending until an admin
// approves them.
func HandleCreateJob(c *fiber.Ctx) error {
	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	businessID, gated, err := jobPoster(usercontext.GetPrincipal(c), req.BusinessID)
	if err != nil {
		return jsonError(c, err)
	}

	business, err := repository.GetGlobalFactory().GetBusinessRepository().GetByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, faults.ErrNotFound)
		}
		return jsonError(c, err)
	}
	if gated && !business.CanPostJobs(time.Now()) {
		return jsonError(c, faults.Forbiddenf("an active subscription is required to post jobs"))
	}

	job := &models.Job{
		BusinessID:          business.ID,
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		Platforms:           req.Platforms,
		BudgetType:          req.BudgetType,
		BudgetMin:           req.BudgetMin,
		BudgetMax:           req.BudgetMax,
		Duration:            req.Duration,
		ExperienceLevel:     req.ExperienceLevel,
		ApplicationDeadline: req.ApplicationDeadline,
		Status:              models.JobStatusPending,
	}
	if job.BudgetType == "" {
		job.BudgetType = models.BudgetTypeFixed
	}
	if err := job.Validate(); err != nil {
		return jsonError(c, faults.Invalidf("invalid job: %v", err))
	}
	if err := repository.GetGlobalFactory().GetJobRepository().Create(job); err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

// HandleUpdateJob edits a job's fields. Owner or admin only; deleted jobs
// cannot be edited.
func HandleUpdateJob(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	job, err := getEngagementService().UpdateJob(usercontext.GetPrincipal(c), id, req.edit())
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(job)
}

// HandleSetJobStatus changes a job's lifecycle status directly. Admins
// moderate pending jobs to open or rejected; owners (and admins) may reopen
// a closed job.
func HandleSetJobStatus(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	job, err := getEngagementService().SetJobStatus(usercontext.GetPrincipal(c), id, req.Status)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(job)
}

// HandleDeleteJob soft-deletes a job with the cancellation cascade onto its
// live applications and open invitations. The response reports what the
// cascade managed to do.
func HandleDeleteJob(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	result, err := getEngagementService().DeleteJob(usercontext.GetPrincipal(c), id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(result)
}

// HandleListMyJobs returns all jobs the calling business posted, every
// status included.
func HandleListMyJobs(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)
	if p.Role != authz.RoleBusiness {
		return jsonError(c, faults.Forbiddenf("only businesses have posted jobs"))
	}

	jobs, err := repository.GetGlobalFactory().GetJobRepository().GetByBusinessID(p.ID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"jobs": jobs})
}

// HandleAdminListJobs returns the full job table for the admin panel,
// including pending, rejected and deleted entries.
func HandleAdminListJobs(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)

	repo := repository.GetGlobalFactory().GetJobRepository()
	jobs, err := repo.List(offset, limit, true)
	if err != nil {
		return jsonError(c, err)
	}
	total, err := repo.Count(true)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{
		"jobs":  jobs,
		"total": total,
	})
}
