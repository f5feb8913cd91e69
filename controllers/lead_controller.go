package controller

import (
	"log"

	"serenitypools/campaign"
	"serenitypools/config"
	"serenitypools/models"
	"serenitypools/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type LeadController struct {
	DB     *gorm.DB
	Logger *log.Logger
	vlog   *logrus.Logger
}

func NewLeadController(db *gorm.DB, logger *log.Logger) *LeadController {
	return &LeadController{
		DB:     db,
		Logger: logger,
		vlog:   logrus.New(),
	}
}

// CreateLead captures a lead from the public quote form, verifies the email,
// and enrolls the lead into the matching drip campaign.
func (lc *LeadController) CreateLead(c *fiber.Ctx) error {
	var input struct {
		Email       string `json:"email" validate:"required,email"`
		FirstName   string `json:"first_name" validate:"omitempty,max=100"`
		LastName    string `json:"last_name" validate:"omitempty,max=100"`
		Phone       string `json:"phone" validate:"omitempty,max=30"`
		City        string `json:"city" validate:"omitempty,max=100"`
		ProjectType string `json:"project_type" validate:"omitempty,oneof=inground renovation spa outdoor-living"`
		BudgetRange string `json:"budget_range" validate:"omitempty,oneof=under-50k 50k-75k 75k-100k 100k-150k 150k-plus"`
		Message     string `json:"message" validate:"omitempty,max=5000"`
		Source      string `json:"source" validate:"omitempty,max=50"`
		Timezone    string `json:"timezone" validate:"omitempty,max=50"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	verification := utils.VerifyLeadEmail(input.Email, lc.vlog)
	if verification.Status == "invalid" || verification.Status == "disposable" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Please use a valid email address", nil)
	}

	lead := models.Lead{
		Email:       verification.Email,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Phone:       input.Phone,
		City:        input.City,
		ProjectType: input.ProjectType,
		BudgetRange: input.BudgetRange,
		Message:     input.Message,
		Source:      input.Source,
		Timezone:    input.Timezone,
	}
	if lead.Source == "" {
		lead.Source = "website"
	}
	if lead.Timezone == "" {
		lead.Timezone = config.AppConfig.DefaultTimezone
	}

	if err := lc.DB.Create(&lead).Error; err != nil {
		lc.Logger.Printf("Failed to create lead: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create lead", nil)
	}

	inst, err := campaign.EnrollLead(lc.DB, &lead, lead.Timezone)
	if err != nil {
		lc.Logger.Printf("Failed to enroll lead %d: %v", lead.ID, err)
	} else if inst != nil {
		lc.Logger.Printf("Enrolled lead %d in %s campaign", lead.ID, inst.CampaignType)
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"lead":     lead,
		"enrolled": inst != nil,
	}))
}

// GetLeads returns leads ordered by score with pagination
func (lc *LeadController) GetLeads(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var leads []models.Lead
	var total int64

	query := lc.DB.Model(&models.Lead{})
	if minScore := c.QueryInt("min_score", 0); minScore > 0 {
		query = query.Where("score >= ?", minScore)
	}

	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count leads", nil)
	}
	if err := query.Order("score DESC, created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&leads).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch leads", nil)
	}

	return c.JSON(fiber.Map{
		"data":  leads,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetLead returns one lead with its campaign history and activities
func (lc *LeadController) GetLead(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))

	var lead models.Lead
	if err := lc.DB.Preload("CampaignInstances").Preload("Activities").
		First(&lead, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}

	return c.JSON(utils.SuccessResponse(lead))
}

// Unsubscribe handles the unsubscribe link from campaign emails. Public route.
func (lc *LeadController) Unsubscribe(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	email := c.Query("email")

	var lead models.Lead
	if err := lc.DB.First(&lead, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Lead not found", nil)
	}
	if email == "" || lead.Email != email {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid unsubscribe link", nil)
	}

	if err := campaign.Unsubscribe(lc.DB, lead.ID); err != nil {
		lc.Logger.Printf("Failed to unsubscribe lead %d: %v", lead.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to unsubscribe", nil)
	}

	return c.JSON(fiber.Map{
		"message": "You have been unsubscribed. You won't hear from us again.",
	})
}
