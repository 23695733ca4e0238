package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/kasirpos/backend/internal/config"
	"github.com/kasirpos/backend/internal/handlers"
	"github.com/kasirpos/backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	paymentHandler *handlers.PaymentHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	storeHandler *handlers.StoreHandler,
	transactionHandler *handlers.TransactionHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (public)
	api.Get("/health", healthHandler.Check)

	// Auth — public, stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Get("/verify", authHandler.VerifyEmail)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Gateway callback — authenticated by signature, not JWT. Always answers
	// "OK" so the provider stops retrying.
	api.Post("/payments/callback", paymentHandler.HandleCallback)

	// Subscription & payment surface (protected)
	jwt := middleware.JWTProtected(cfg)
	api.Get("/packages", subscriptionHandler.ListPackages)
	api.Get("/subscription", jwt, subscriptionHandler.GetStatus)
	api.Get("/subscription/can-create-store", jwt, subscriptionHandler.CheckStoreEntitlement)
	api.Get("/stores/:store_id/can-add-member", jwt, subscriptionHandler.CheckMemberEntitlement)
	api.Post("/payments", jwt, paymentHandler.CreatePayment)
	api.Get("/payments", jwt, paymentHandler.GetPaymentHistory)
	api.Get("/payments/:order_id", jwt, paymentHandler.GetPaymentStatus)

	// Stores & members (protected)
	api.Post("/stores", jwt, storeHandler.Create)
	api.Get("/stores", jwt, storeHandler.List)
	api.Post("/stores/:store_id/members", jwt, storeHandler.AddMember)

	// Point of sale (protected, store access enforced in the service)
	api.Post("/stores/:store_id/transactions", jwt, transactionHandler.Create)
	api.Get("/stores/:store_id/transactions", jwt, transactionHandler.List)
	api.Get("/stores/:store_id/transactions/:id", jwt, transactionHandler.Get)

	// Admin (protected + admin required)
	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))
	admin.Post("/sweeps/expiry", adminHandler.RunExpirySweep)
	admin.Post("/sweeps/reminders", adminHandler.RunReminderSweep)
	admin.Get("/payments", adminHandler.ListPayments)
}
