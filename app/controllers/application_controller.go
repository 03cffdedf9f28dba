package controllers

import (
	"github.com/gigbridge/gigbridge/internal/pkg/engagement"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// HandleCreateApplication lets a creator apply to an open job.
func HandleCreateApplication(c *fiber.Ctx) error {
	var in engagement.ApplicationInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	app, err := getEngagementService().Apply(usercontext.GetPrincipal(c), in)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// HandleTransitionApplication moves an application to a requested status.
// Who may request which step is decided by the engagement service.
func HandleTransitionApplication(c *fiber.Ctx) error {
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

	app, err := getEngagementService().TransitionApplication(usercontext.GetPrincipal(c), id, req.Status)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(app)
}

// HandleListJobApplications returns a job's applications for its owner.
func HandleListJobApplications(c *fiber.Ctx) error {
	jobID, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	apps, err := getEngagementService().ListApplicationsForJob(usercontext.GetPrincipal(c), jobID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"applications": apps})
}

// HandleListMyApplications returns the calling creator's applications.
func HandleListMyApplications(c *fiber.Ctx) error {
	apps, err := getEngagementService().ListOwnApplications(usercontext.GetPrincipal(c))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"applications": apps})
}
