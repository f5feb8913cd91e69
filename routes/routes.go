package routes

import (
	"log"
	"os"

	controller "serenitypools/controllers"
	"serenitypools/middleware"
	"serenitypools/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

// Workers holds the background components the HTTP layer exposes.
type Workers struct {
	Scheduler  *worker.CampaignWorker
	ReplyQueue *worker.AutoReplyWorker
	Pipeline   *worker.InboundPipeline
}

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)
	authController := controller.NewAuthController(db, authLogger)

	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	auth.Post("/login", authController.Login)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupPublicRoutes(app *fiber.App, db *gorm.DB, workers Workers) {
	leadController := controller.NewLeadController(db, log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	inboundController := controller.NewInboundController(db, log.New(os.Stdout, "INBOUND: ", log.LstdFlags), workers.Pipeline)

	api := app.Group("/api", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Lead capture from the public quote form, rate limited per IP
	api.Post("/leads", middleware.LeadCaptureRateLimiter(), leadController.CreateLead)

	// Unsubscribe link target from campaign emails
	api.Get("/unsubscribe/:id", leadController.Unsubscribe)

	// Mail provider push webhook for inbound replies
	api.Post("/inbound", inboundController.ReceiveWebhook)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, workers Workers) {
	leadController := controller.NewLeadController(db, log.New(os.Stdout, "LEAD: ", log.LstdFlags))
	campaignController := controller.NewCampaignController(db, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags), workers.Scheduler, workers.ReplyQueue)
	inboundController := controller.NewInboundController(db, log.New(os.Stdout, "INBOUND: ", log.LstdFlags), workers.Pipeline)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Lead routes
	lead := api.Group("/leads")
	lead.Get("/", leadController.GetLeads)
	lead.Get("/:id", leadController.GetLead)

	// Campaign routes
	campaign := api.Group("/campaigns")
	campaign.Get("/definitions", campaignController.GetDefinitions)
	campaign.Get("/stats", campaignController.GetStats)
	campaign.Get("/", campaignController.GetInstances)
	campaign.Get("/:id", campaignController.GetInstance)
	campaign.Post("/:id/stop", campaignController.StopInstance)
	campaign.Post("/:id/unsubscribe", campaignController.UnsubscribeInstance)

	// Scheduler control routes
	scheduler := api.Group("/scheduler")
	scheduler.Get("/status", campaignController.SchedulerStatus)
	scheduler.Post("/stop", campaignController.StopScheduler)
	scheduler.Post("/restart", campaignController.RestartScheduler)

	// WebSocket route for scheduler progress
	app.Use("/api/v1/scheduler/progress", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/api/v1/scheduler/progress", campaignController.SchedulerProgress())

	// Inbound review routes
	inbound := api.Group("/inbound")
	inbound.Get("/", inboundController.GetInbound)
	inbound.Put("/:id/read", inboundController.MarkRead)

	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, workers Workers) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupPublicRoutes(app, db, workers)
	SetupAPIRoutes(app, db, workers)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
