package controllers

import (
	"log"
	"strconv"
	"sync"

	"github.com/gigbridge/gigbridge/internal/pkg/badge"
	"github.com/gigbridge/gigbridge/internal/pkg/billing"
	"github.com/gigbridge/gigbridge/internal/pkg/database"
	"github.com/gigbridge/gigbridge/internal/pkg/engagement"
	"github.com/gigbridge/gigbridge/internal/pkg/env"
	"github.com/gigbridge/gigbridge/internal/pkg/faults"
	"github.com/gigbridge/gigbridge/internal/pkg/messaging"
	"github.com/gigbridge/gigbridge/internal/pkg/reviews"
	"github.com/gofiber/fiber/v2"
)

var (
	servicesOnce      sync.Once
	engagementService *engagement.Service
	messagingGate     *messaging.Gate
	badgeTracker      *badge.Tracker
	reviewService     *reviews.Service
	billingService    *billing.Service
)

// initServices wires the domain services against the global DB handle once.
func initServices() {
	servicesOnce.Do(func() {
		db := database.GetDB()
		engagementService = engagement.NewServiceFromDB(db)
		messagingGate = messaging.NewGateFromDB(db)
		badgeTracker = badge.NewTrackerFromDB(db)
		reviewService = reviews.NewServiceFromDB(db)
		billingService = billing.NewServiceFromDB(db, billing.ConfigFromEnv(env.GetEnv))
	})
}

func getEngagementService() *engagement.Service {
	initServices()
	return engagementService
}

func getMessagingGate() *messaging.Gate {
	initServices()
	return messagingGate
}

func getBadgeTracker() *badge.Tracker {
	initServices()
	return badgeTracker
}

func getReviewService() *reviews.Service {
	initServices()
	return reviewService
}

func getBillingService() *billing.Service {
	initServices()
	return billingService
}

// jsonError translates a service error into the JSON error envelope.
func jsonError(c *fiber.Ctx, err error) error {
	status := faults.StatusCode(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   faults.Code(err),
		"message": err.Error(),
	})
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, faults.Invalidf("invalid %s %q", name, raw)
	}
	return uint(id), nil
}
