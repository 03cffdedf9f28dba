package controllers

import (
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// HandleGetBadges returns the caller's badge counts.
func HandleGetBadges(c *fiber.Ctx) error {
	counts, err := getBadgeTracker().GetCounts(usercontext.GetPrincipal(c))
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(counts)
}

// HandleMarkViewed resets one badge scope by moving the caller's view marker
// to now.
func HandleMarkViewed(c *fiber.Ctx) error {
	var req struct {
		Scope string `json:"scope"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, faults.Invalidf("invalid request body"))
	}

	if err := getBadgeTracker().MarkViewed(usercontext.GetPrincipal(c), req.Scope); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"message": "marked viewed"})
}
