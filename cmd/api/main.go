package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"daze_backend/internal/controller"
	"daze_backend/internal/middleware"
	"daze_backend/internal/model"
	"daze_backend/pkg/config"
	"daze_backend/pkg/cron"
	"daze_backend/pkg/database"
	"daze_backend/pkg/email"
	"daze_backend/pkg/seed"
	"daze_backend/pkg/utils/jwt"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Auth Routes
	auth := api.Group("/auth")
	auth.Post("/login", controller.Login)

	// Webhook Routes (token-checked inside the handler)
	webhooks := api.Group("/webhooks")
	webhooks.Post("/leads", controller.ReceiveLead)

	// Protected Routes
	protected := api.Group("/", middleware.AuthMiddleware())
	protected.Get("/me", controller.GetMe)
	protected.Post("/auth/change-password", controller.ChangePassword)

	// Lead Routes
	leads := protected.Group("/leads")
	leads.Get("/my", controller.GetMyLeads)
	leads.Get("/:id", middleware.CheckLeadAccess(), controller.GetLead)
	leads.Put("/:id/status", middleware.CheckLeadAccess(), controller.UpdateLeadStatus)
	leads.Put("/:id/viewed", middleware.CheckLeadAccess(), controller.MarkLeadViewed)
	leads.Post("/:id/confirm", middleware.CheckLeadAccess(), controller.ConfirmLeadContact)
	leads.Get("/:id/notes", middleware.CheckLeadAccess(), controller.GetLeadNotes)
	leads.Post("/:id/notes", middleware.CheckLeadAccess(), controller.AddLeadNote)
	leads.Post("/:id/quote", middleware.CheckLeadAccess(), controller.UploadLeadQuote)
	leads.Post("/:id/serials", middleware.CheckLeadAccess(), controller.RegisterLeadSerials)

	// Installation Routes
	installations := protected.Group("/installations")
	installations.Post("/validate-serial", controller.ValidateSerial)
	installations.Post("/", controller.RegisterInstallation)
	installations.Get("/my", controller.GetMyInstallations)
	installations.Post("/:id/photos", controller.AddInstallationPhoto)

	// Rewards Routes
	rewards := protected.Group("/rewards")
	rewards.Get("/tiers", controller.GetTiers)
	rewards.Get("/my", controller.GetMyRewards)

	// Push Notification Routes
	push := protected.Group("/push")
	push.Get("/vapid-public-key", controller.GetVAPIDPublicKey)
	push.Post("/subscribe", controller.SubscribePush)
	push.Post("/unsubscribe", controller.UnsubscribePush)
	push.Get("/subscriptions", controller.GetMyPushSubscriptions)

	// Installer Dashboard
	protected.Get("/dashboard/stats", controller.GetInstallerStats)

	// Company Routes (any team member reads, owner/admin manage)
	company := protected.Group("/company", middleware.RequireCompanyAffiliation())
	company.Get("/stats", controller.GetCompanyStats)
	company.Get("/rewards", controller.GetCompanyRewards)
	company.Get("/onboarding", controller.GetOnboarding)
	company.Get("/team", middleware.CheckCompanyManagement(), controller.GetCompanyTeam)
	company.Post("/team", middleware.CheckCompanyManagement(), controller.AddTeamMember)
	company.Put("/onboarding", middleware.CheckCompanyManagement(), controller.UpdateOnboarding)

	// Admin Routes
	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.Get("/leads", controller.GetAllLeads)
	admin.Get("/installations", controller.GetPendingInstallations)
	admin.Put("/installations/:id/approve", controller.ApproveInstallation)
	admin.Put("/installations/:id/reject", controller.RejectInstallation)
	admin.Get("/companies", controller.ListCompanies)
	admin.Post("/companies", controller.CreateCompany)
	admin.Post("/companies/:id/reset-password", controller.ResetOwnerPassword)
	admin.Get("/installers", controller.ListInstallers)
	admin.Post("/installers", controller.CreateInstaller)
	admin.Get("/rewards/leaderboard", controller.GetLeaderboard)
	admin.Get("/stats", controller.GetAdminStats)
}

func main() {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is not set in .env")
	}
	jwt.SetSecret(cfg.JWT.Secret)

	if err := email.InitEmailService(cfg.Email.ResendAPIKey, cfg.Email.From); err != nil {
		log.Printf("Email service disabled: %v", err)
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.InstallationCompany{},
		&model.Installer{},
		&model.Product{},
		&model.Lead{},
		&model.LeadAssignment{},
		&model.LeadStatusHistory{},
		&model.LeadNote{},
		&model.Installation{},
		&model.WallboxSerial{},
		&model.RewardsTier{},
		&model.InstallerRewards{},
		&model.CompanyRewards{},
		&model.PointsTransaction{},
		&model.NotificationLog{},
		&model.PushSubscription{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	seed.Run(database.GetDB())

	cron.InitRewardsCron()
	cron.InitPushCleanupCron()

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
