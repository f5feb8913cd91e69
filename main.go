package main

import (
	"context"
	"log"
	"os"
	"time"

	"serenitypools/campaign"
	"serenitypools/config"
	controller "serenitypools/controllers"
	"serenitypools/middleware"
	"serenitypools/routes"
	"serenitypools/utils"
	"serenitypools/worker"

	sentry "github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry for scheduler failure alerts
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Seed the admin account from env on first boot
	if err := controller.EnsureAdminUser(config.DB, config.AppConfig.AdminEmail, config.AppConfig.AdminPassword, logger); err != nil {
		logger.Fatalf("Failed to ensure admin user: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Shared infrastructure for the background workers
	store := worker.NewGormStore(config.DB)
	mailer := utils.NewSMTPMailer(log.New(os.Stdout, "MAILER: ", log.LstdFlags))
	aiClient := utils.NewAIClient(logrus.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Campaign scheduler
	resolver := &campaign.DynamicResolver{
		Completer: aiClient,
		Logger:    log.New(os.Stdout, "RESOLVER: ", log.LstdFlags),
	}
	campaignWorker := worker.NewCampaignWorker(store, mailer, resolver,
		log.New(os.Stdout, "CAMPAIGN: ", log.Ldate|log.Ltime|log.Lshortfile),
		config.AppConfig.DefaultTimezone)
	go campaignWorker.Start(ctx)

	// Auto-reply queue and inbound pipeline
	replyQueue := worker.NewAutoReplyWorker(mailer, log.New(os.Stdout, "AUTOREPLY: ", log.LstdFlags))
	pipeline := worker.NewInboundPipeline(store, aiClient, aiClient, replyQueue,
		log.New(os.Stdout, "INBOUND: ", log.LstdFlags))

	// IMAP inbox polling
	inboxWorker := worker.NewInboxWorker(pipeline, log.New(os.Stdout, "INBOX: ", log.LstdFlags))
	go inboxWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, routes.Workers{
		Scheduler:  campaignWorker,
		ReplyQueue: replyQueue,
		Pipeline:   pipeline,
	})

	// Root status endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
