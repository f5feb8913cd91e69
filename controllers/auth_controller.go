package controller

import (
	"log"
	"time"

	"serenitypools/models"
	"serenitypools/utils"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewAuthController(db *gorm.DB, logger *log.Logger) *AuthController {
	return &AuthController{
		DB:     db,
		Logger: logger,
	}
}

// Login authenticates an admin operator and issues a JWT
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var user models.User
	if err := ac.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid credentials", nil)
	}

	if !user.IsActive {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Account is not active", nil)
	}

	token, err := utils.GenerateJWTToken(&user)
	if err != nil {
		ac.Logger.Printf("Failed to generate token for user %d: %v", user.ID, err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate token", nil)
	}

	now := time.Now()
	if err := ac.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
		ac.Logger.Printf("Failed to record login for user %d: %v", user.ID, err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"token": token,
		"user":  user,
	}))
}

// EnsureAdminUser creates the configured admin account on first boot.
func EnsureAdminUser(db *gorm.DB, email, password string, logger *log.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Admin",
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}

	logger.Printf("Created admin user %s", email)
	return nil
}
