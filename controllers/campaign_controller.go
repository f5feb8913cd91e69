package controller

import (
	"log"
	"time"

	"serenitypools/campaign"
	"serenitypools/models"
	"serenitypools/utils"
	"serenitypools/worker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

type CampaignController struct {
	DB         *gorm.DB
	Logger     *log.Logger
	Scheduler  *worker.CampaignWorker
	ReplyQueue *worker.AutoReplyWorker
}

func NewCampaignController(db *gorm.DB, logger *log.Logger, scheduler *worker.CampaignWorker, replyQueue *worker.AutoReplyWorker) *CampaignController {
	return &CampaignController{
		DB:         db,
		Logger:     logger,
		Scheduler:  scheduler,
		ReplyQueue: replyQueue,
	}
}

// GetDefinitions lists the available campaign templates
func (cc *CampaignController) GetDefinitions(c *fiber.Ctx) error {
	defs := campaign.Definitions()

	out := make([]fiber.Map, 0, len(defs))
	for _, def := range defs {
		steps := make([]fiber.Map, 0, len(def.Steps))
		for _, step := range def.Steps {
			steps = append(steps, fiber.Map{
				"id":         step.ID,
				"day_offset": step.DayOffset,
				"subject":    step.Subject,
				"dynamic":    step.Dynamic,
			})
		}
		out = append(out, fiber.Map{
			"type":     def.Type,
			"name":     def.Name,
			"priority": def.Priority,
			"steps":    steps,
		})
	}

	return c.JSON(utils.SuccessResponse(out))
}

// GetInstances lists campaign enrollments with optional status/type filters
func (cc *CampaignController) GetInstances(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := cc.DB.Model(&models.CampaignInstance{}).Preload("Lead")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if ctype := c.Query("type"); ctype != "" {
		query = query.Where("campaign_type = ?", ctype)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count campaigns", nil)
	}

	var instances []models.CampaignInstance
	if err := query.Order("enrolled_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&instances).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaigns", nil)
	}

	return c.JSON(fiber.Map{
		"data":  instances,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetInstance returns one enrollment with its send history
func (cc *CampaignController) GetInstance(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var inst models.CampaignInstance
	if err := cc.DB.Preload("Lead").Preload("Emails").
		First(&inst, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	return c.JSON(utils.SuccessResponse(inst))
}

// StopInstance pauses one enrollment without unsubscribing the lead
func (cc *CampaignController) StopInstance(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var inst models.CampaignInstance
	if err := cc.DB.First(&inst, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}
	if inst.Status != models.CampaignStatusActive {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Campaign is not active", nil)
	}

	if err := cc.DB.Model(&inst).Updates(map[string]interface{}{
		"status":       models.CampaignStatusStopped,
		"next_send_at": nil,
	}).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to stop campaign", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"id": inst.ID, "status": models.CampaignStatusStopped}))
}

// UnsubscribeInstance unsubscribes the lead behind an enrollment, stopping
// every active campaign for them
func (cc *CampaignController) UnsubscribeInstance(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var inst models.CampaignInstance
	if err := cc.DB.First(&inst, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Campaign not found", nil)
	}

	if err := campaign.Unsubscribe(cc.DB, inst.LeadID); err != nil {
		cc.Logger.Printf("Failed to unsubscribe lead %d: %v", inst.LeadID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unsubscribe", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"lead_id": inst.LeadID, "unsubscribed": true}))
}

// GetStats returns counts for the admin dashboard
func (cc *CampaignController) GetStats(c *fiber.Ctx) error {
	var active, completed, totalSends, needsReview int64

	cc.DB.Model(&models.CampaignInstance{}).
		Where("status = ?", models.CampaignStatusActive).Count(&active)
	cc.DB.Model(&models.CampaignInstance{}).
		Where("status = ?", models.CampaignStatusCompleted).Count(&completed)
	cc.DB.Model(&models.CampaignEmail{}).Count(&totalSends)
	cc.DB.Model(&models.InboundEmail{}).
		Where("needs_review = ? AND is_read = ?", true, false).Count(&needsReview)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"active_campaigns":    active,
		"completed_campaigns": completed,
		"emails_sent":         totalSends,
		"needs_review":        needsReview,
		"scheduler":           cc.Scheduler.Status(),
		"reply_queue_depth":   cc.ReplyQueue.QueueDepth(),
	}))
}

// SchedulerStatus exposes the scheduler snapshot on its own endpoint
func (cc *CampaignController) SchedulerStatus(c *fiber.Ctx) error {
	return c.JSON(utils.SuccessResponse(cc.Scheduler.Status()))
}

// StopScheduler disables the send loop until an operator restarts it
func (cc *CampaignController) StopScheduler(c *fiber.Ctx) error {
	cc.Scheduler.Stop()
	return c.JSON(utils.SuccessResponse(cc.Scheduler.Status()))
}

// RestartScheduler clears the disabled state and error counter
func (cc *CampaignController) RestartScheduler(c *fiber.Ctx) error {
	cc.Scheduler.Restart()
	return c.JSON(utils.SuccessResponse(cc.Scheduler.Status()))
}

// SchedulerProgress streams scheduler snapshots over a websocket so the
// dashboard can watch ticks without polling.
func (cc *CampaignController) SchedulerProgress() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer conn.Close()

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			payload := fiber.Map{
				"scheduler":         cc.Scheduler.Status(),
				"reply_queue_depth": cc.ReplyQueue.QueueDepth(),
				"at":                time.Now(),
			}
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	})
}
