package controllers

import (
	"errors"

	"github.com/gigbridge/gigbridge/app/repository"
	"github.com/gigbridge/gigbridge/internal/pkg/engagement"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HandleCreateInvitation lets a business invite a creator to an open job.
func HandleCreateInvitation(c *fiber.Ctx) error {
	var in engagement.InvitationInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	// Refuse dangling invitations to creator ids that do not exist.
	if _, err := repository.GetGlobalFactory().GetCreatorRepository().GetByID(in.CreatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, faults.ErrNotFound)
		}
		return jsonError(c, err)
	}

	inv, err := getEngagementService().Invite(usercontext.GetPrincipal(c), in)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// HandleAcceptInvitation accepts an invitation. The response carries the
// follow-up outcomes (created application, job closed) and a warning when a
// follow-up step failed.
func HandleAcceptInvitation(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	result, err := getEngagementService().AcceptInvitation(usercontext.GetPrincipal(c), id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(result)
}

// HandleRejectInvitation turns down a pending invitation.
func HandleRejectInvitation(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	inv, err := getEngagementService().RejectInvitation(usercontext.GetPrincipal(c), id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(inv)
}

// HandleCancelInvitation withdraws a pending invitation from the business side.
func HandleCancelInvitation(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	inv, err := getEngagementService().CancelInvitation(usercontext.GetPrincipal(c), id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(inv)
}

// HandleListInvitations returns the caller's invitations: received for
// creators, sent for businesses.
func HandleListInvitations(c *fiber.Ctx) error {
	invs, err := getEngagementService().ListInvitations(usercontext.GetPrincipal(c))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"invitations": invs})
}

// HandleAdminUnlinkedInvitations lists accepted invitations whose
// application follow-up was lost, for manual reconciliation.
func HandleAdminUnlinkedInvitations(c *fiber.Ctx) error {
	invs, err := getEngagementService().FindUnlinkedAcceptedInvitations(usercontext.GetPrincipal(c))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"invitations": invs})
}
