package controller

import (
	"log"
	"time"

	"serenitypools/models"
	"serenitypools/utils"
	"serenitypools/worker"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type InboundController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Pipeline *worker.InboundPipeline
}

func NewInboundController(db *gorm.DB, logger *log.Logger, pipeline *worker.InboundPipeline) *InboundController {
	return &InboundController{
		DB:       db,
		Logger:   logger,
		Pipeline: pipeline,
	}
}

// ReceiveWebhook ingests an inbound email pushed by a mail provider webhook.
// Providers retry on non-2xx, so handling errors surface as 500s and dedup by
// message ID absorbs the replays.
func (ic *InboundController) ReceiveWebhook(c *fiber.Ctx) error {
	var input struct {
		MessageID  string    `json:"message_id" validate:"required"`
		ThreadID   string    `json:"thread_id"`
		From       string    `json:"from" validate:"required"`
		To         string    `json:"to"`
		Subject    string    `json:"subject"`
		Body       string    `json:"body"`
		BodyHTML   string    `json:"body_html"`
		ReceivedAt time.Time `json:"received_at"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	msg := worker.InboundMessage{
		MessageID:  input.MessageID,
		ThreadID:   input.ThreadID,
		From:       input.From,
		To:         input.To,
		Subject:    input.Subject,
		Body:       input.Body,
		BodyHTML:   input.BodyHTML,
		ReceivedAt: input.ReceivedAt,
	}

	if err := ic.Pipeline.HandleInbound(msg); err != nil {
		ic.Logger.Printf("Webhook inbound %s failed: %v", input.MessageID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process message", nil)
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// GetInbound lists inbound messages, optionally only the review queue
func (ic *InboundController) GetInbound(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := ic.DB.Model(&models.InboundEmail{})
	if c.Query("needs_review") == "true" {
		query = query.Where("needs_review = ?", true)
	}
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count messages", nil)
	}

	var emails []models.InboundEmail
	if err := query.Order("received_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&emails).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch messages", nil)
	}

	return c.JSON(fiber.Map{
		"data":  emails,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// MarkRead marks an inbound message as handled by a human
func (ic *InboundController) MarkRead(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var email models.InboundEmail
	if err := ic.DB.First(&email, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Message not found", nil)
	}

	if err := ic.DB.Model(&email).Updates(map[string]interface{}{
		"is_read":      true,
		"needs_review": false,
	}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update message", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"id": email.ID, "is_read": true}))
}
