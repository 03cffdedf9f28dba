package controllers

import (
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/reviews"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// HandleCreateReview submits a business review of a creator. It enters the
// moderation queue as pending.
func HandleCreateReview(c *fiber.Ctx) error {
	var in reviews.ReviewInput
	if err := c.BodyParser(&in); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	rev, err := getReviewService().Submit(usercontext.GetPrincipal(c), in)
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rev)
}

// HandleModerateReview applies an admin moderation decision.
func HandleModerateReview(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req struct {
		Approve         bool   `json:"approve"`
		RejectionReason string `json:"rejection_reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	rev, err := getReviewService().Moderate(usercontext.GetPrincipal(c), id, req.Approve, req.RejectionReason)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(rev)
}

// HandleReplyToReview records the reviewed creator's one-time reply.
func HandleReplyToReview(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req struct {
		Reply string `json:"reply"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	rev, err := getReviewService().Reply(usercontext.GetPrincipal(c), id, req.Reply)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(rev)
}

// HandleListCreatorReviews returns a creator's reviews. The public sees
// approved entries only.
func HandleListCreatorReviews(c *fiber.Ctx) error {
	creatorID, err := parseIDParam(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	revs, err := getReviewService().ListForCreator(usercontext.GetPrincipal(c), creatorID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": revs})
}

// HandleListMyReviews returns the reviews the calling business submitted.
func HandleListMyReviews(c *fiber.Ctx) error {
	p := usercontext.GetPrincipal(c)
	revs, err := getReviewService().ListForBusiness(p, p.ID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": revs})
}

// HandleAdminListPendingReviews returns the moderation queue.
func HandleAdminListPendingReviews(c *fiber.Ctx) error {
	revs, err := getReviewService().ListPending(usercontext.GetPrincipal(c))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": revs})
}
