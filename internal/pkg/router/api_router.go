package router

import (
	"github.com/gigbridge/gigbridge/app/controllers"
	"github.com/gigbridge/gigbridge/internal/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 120,
		// The webhook endpoint must never be throttled away from the
		// payment provider's retry schedule.
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/api/v1/billing/stripe/webhook"
		},
	}))

	v1 := api.Group("/v1")

	// Auth
	v1.Post("/auth/register/business", controllers.HandleRegisterBusiness)
	v1.Post("/auth/register/creator", controllers.HandleRegisterCreator)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Post("/auth/logout", controllers.HandleLogout)
	v1.Get("/auth/me", controllers.HandleMe)

	// Jobs
	v1.Get("/jobs", controllers.HandleListJobs)
	v1.Get("/jobs/:id", controllers.HandleGetJob)
	v1.Post("/jobs", middleware.RequireAuth, controllers.HandleCreateJob)
	v1.Put("/jobs/:id", middleware.RequireAuth, controllers.HandleUpdateJob)
	v1.Patch("/jobs/:id/status", middleware.RequireAuth, controllers.HandleSetJobStatus)
	v1.Delete("/jobs/:id", middleware.RequireAuth, controllers.HandleDeleteJob)
	v1.Get("/business/jobs", middleware.RequireAuth, controllers.HandleListMyJobs)
	v1.Get("/jobs/:id/applications", middleware.RequireAuth, controllers.HandleListJobApplications)

	// Applications
	v1.Post("/applications", middleware.RequireAuth, controllers.HandleCreateApplication)
	v1.Patch("/applications/:id/status", middleware.RequireAuth, controllers.HandleTransitionApplication)
	v1.Get("/applications", middleware.RequireAuth, controllers.HandleListMyApplications)

	// Invitations
	v1.Post("/invitations", middleware.RequireAuth, controllers.HandleCreateInvitation)
	v1.Post("/invitations/:id/accept", middleware.RequireAuth, controllers.HandleAcceptInvitation)
	v1.Post("/invitations/:id/reject", middleware.RequireAuth, controllers.HandleRejectInvitation)
	v1.Post("/invitations/:id/cancel", middleware.RequireAuth, controllers.HandleCancelInvitation)
	v1.Get("/invitations", middleware.RequireAuth, controllers.HandleListInvitations)

	// Messages (conversation per application)
	v1.Get("/applications/:id/messages", middleware.RequireAuth, controllers.HandleListMessages)
	v1.Post("/applications/:id/messages", middleware.RequireAuth, controllers.HandleSendMessage)
	v1.Post("/applications/:id/messages/read", middleware.RequireAuth, controllers.HandleMarkMessagesRead)
	v1.Get("/applications/:id/messages/unread", middleware.RequireAuth, controllers.HandleUnreadCount)

	// Badges
	v1.Get("/badges", middleware.RequireAuth, controllers.HandleGetBadges)
	v1.Post("/badges/viewed", middleware.RequireAuth, controllers.HandleMarkViewed)

	// Reviews
	v1.Get("/creators/:id/reviews", controllers.HandleListCreatorReviews)
	v1.Post("/reviews", middleware.RequireAuth, controllers.HandleCreateReview)
	v1.Post("/reviews/:id/reply", middleware.RequireAuth, controllers.HandleReplyToReview)
	v1.Get("/business/reviews", middleware.RequireAuth, controllers.HandleListMyReviews)

	// Billing webhook (raw body, signature-verified, unauthenticated)
	v1.Post("/billing/stripe/webhook", controllers.HandleStripeWebhook)

	// Admin
	admin := v1.Group("/admin", middleware.RequireAdmin)
	admin.Get("/jobs", controllers.HandleAdminListJobs)
	admin.Patch("/jobs/:id/status", controllers.HandleSetJobStatus)
	admin.Get("/invitations/unlinked", controllers.HandleAdminUnlinkedInvitations)
	admin.Get("/reviews/pending", controllers.HandleAdminListPendingReviews)
	admin.Post("/reviews/:id/moderate", controllers.HandleModerateReview)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
