package controllers

import (
	"github.com/gigbridge/gigbridge/internal/pkg/billing"
	"github.com/gofiber/fiber/v2"
)

// HandleStripeWebhook receives signed billing events. Duplicates acknowledge
// with 200 so the provider stops retrying; only verification and processing
// failures produce an error status.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	outcome, err := getBillingService().HandleEvent(payload, signature)
	if err != nil {
		return jsonError(c, err)
	}

	switch outcome {
	case billing.OutcomeDuplicate:
		return c.JSON(fiber.Map{"status": "duplicate"})
	default:
		return c.JSON(fiber.Map{"status": "applied"})
	}
}
