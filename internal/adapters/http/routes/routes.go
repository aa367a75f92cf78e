package routes

import (
	"equipahub/internal/adapters/http/handlers"
	"equipahub/internal/adapters/http/middleware"
	"equipahub/internal/adapters/persistence/repositories"
	"equipahub/internal/config"
	"equipahub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the
// allocation engine so the caller can attach the sweep service.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.AllocationEngine {
	// Initialize the store
	store := repositories.NewGormStore(db)

	// Initialize services
	notifyService := services.NewNotificationService(store)
	engine := services.NewAllocationEngine(store, nil, notifyService, services.EngineConfig{
		BulkThreshold:    cfg.Allocation.BulkThreshold,
		ReservationGrace: cfg.Allocation.ReservationGrace,
		ExpiryWarnWindow: cfg.Allocation.ExpiryWarnWindow,
	})
	authService := services.NewAuthService(store.Users(), store.RefreshTokens(), cfg)
	dashboardService := services.NewDashboardService(engine, store)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	equipmentHandler := handlers.NewEquipmentHandler(engine)
	loanHandler := handlers.NewLoanHandler(engine)
	reservationHandler := handlers.NewReservationHandler(engine)
	requestHandler := handlers.NewRequestHandler(engine)
	notificationHandler := handlers.NewNotificationHandler(notifyService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes
	authRoutes := apiV1.Group("/auth")
	authRoutes.Use(middleware.AuthRateLimiter())
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Post("/register", middleware.AuthMiddleware(cfg), middleware.TechnicianOnly(), authHandler.Register)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
	authRoutes.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)

	// Equipment routes. Fine-grained permissions live in the engine;
	// the router only requires authentication.
	equipmentRoutes := apiV1.Group("/equipment")
	equipmentRoutes.Use(middleware.AuthMiddleware(cfg))
	equipmentRoutes.Get("/", equipmentHandler.List)
	equipmentRoutes.Get("/:id", equipmentHandler.Get)
	equipmentRoutes.Post("/", equipmentHandler.Create)
	equipmentRoutes.Patch("/:id", equipmentHandler.Update)
	equipmentRoutes.Patch("/:id/status", equipmentHandler.SetStatus)
	equipmentRoutes.Delete("/:id", equipmentHandler.Delete)

	// Loan routes
	loanRoutes := apiV1.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	loanRoutes.Get("/", loanHandler.List)
	loanRoutes.Get("/overdue", loanHandler.Overdue)
	loanRoutes.Get("/:id", loanHandler.Get)
	loanRoutes.Post("/", loanHandler.Create)
	loanRoutes.Post("/:id/pickup", loanHandler.ConfirmPickup)
	loanRoutes.Post("/:id/return", loanHandler.Return)
	loanRoutes.Post("/:id/cancel", loanHandler.Cancel)

	// Reservation routes
	reservationRoutes := apiV1.Group("/reservations")
	reservationRoutes.Use(middleware.AuthMiddleware(cfg))
	reservationRoutes.Get("/", reservationHandler.List)
	reservationRoutes.Post("/", reservationHandler.Create)
	reservationRoutes.Post("/:id/confirm", reservationHandler.Confirm)
	reservationRoutes.Post("/:id/cancel", reservationHandler.Cancel)
	reservationRoutes.Post("/:id/convert", reservationHandler.Convert)

	// Bulk loan request routes
	requestRoutes := apiV1.Group("/requests")
	requestRoutes.Use(middleware.AuthMiddleware(cfg))
	requestRoutes.Get("/", requestHandler.List)
	requestRoutes.Get("/:id", requestHandler.Get)
	requestRoutes.Post("/", requestHandler.Create)
	requestRoutes.Post("/:id/decide", middleware.CoordinatorOnly(), requestHandler.Decide)
	requestRoutes.Post("/:id/pickup", requestHandler.ConfirmPickup)

	// Notification routes
	notificationRoutes := apiV1.Group("/notifications")
	notificationRoutes.Use(middleware.AuthMiddleware(cfg))
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/unread-count", notificationHandler.UnreadCount)
	notificationRoutes.Patch("/:id/read", notificationHandler.MarkRead)
	notificationRoutes.Patch("/read-all", notificationHandler.MarkAllRead)

	// Dashboard & report routes (staff only)
	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.Staff())
	dashboardRoutes.Get("/stats", dashboardHandler.Stats)

	reportRoutes := apiV1.Group("/reports")
	reportRoutes.Use(middleware.AuthMiddleware(cfg))
	reportRoutes.Get("/summary", dashboardHandler.SummaryReport)

	return engine
}
