package worker

import (
	"time"

	"serenitypools/campaign"
	"serenitypools/models"

	"gorm.io/gorm"
)

// CampaignStore is the persistence surface the scheduler loop needs.
type CampaignStore interface {
	// ActiveInstances returns all active, non-unsubscribed instances with
	// their leads preloaded.
	ActiveInstances() ([]models.CampaignInstance, error)
	// RecordSend appends a send-history row and a lead activity.
	RecordSend(email *models.CampaignEmail) error
	// SaveInstance persists advanced scheduling state.
	SaveInstance(inst *models.CampaignInstance) error
}

// InboundStore is the persistence surface of the inbound pipeline.
type InboundStore interface {
	InboundExists(messageID string) (bool, error)
	SaveInbound(email *models.InboundEmail) error
	FindLeadByEmail(email string) (*models.Lead, error)
	UpdateLeadScore(leadID uint, score int) error
	RecordActivity(activity *models.LeadActivity) error
	UnsubscribeLead(leadID uint) error
}

// GormStore backs both store interfaces with the application database.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) ActiveInstances() ([]models.CampaignInstance, error) {
	var instances []models.CampaignInstance
	err := s.DB.Preload("Lead").
		Where("status = ? AND unsubscribed = ?", models.CampaignStatusActive, false).
		Find(&instances).Error
	return instances, err
}

func (s *GormStore) RecordSend(email *models.CampaignEmail) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(email).Error; err != nil {
			return err
		}
		activity := models.LeadActivity{
			LeadID:             email.LeadID,
			CampaignInstanceID: &email.CampaignInstanceID,
			ActivityType:       "sent",
			ActivityAt:         email.SentAt,
			Details:            email.StepID,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}
		return tx.Model(&models.Lead{}).Where("id = ?", email.LeadID).
			Update("last_contact", email.SentAt).Error
	})
}

func (s *GormStore) SaveInstance(inst *models.CampaignInstance) error {
	return s.DB.Save(inst).Error
}

func (s *GormStore) InboundExists(messageID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.InboundEmail{}).
		Where("message_id = ?", messageID).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) SaveInbound(email *models.InboundEmail) error {
	return s.DB.Create(email).Error
}

func (s *GormStore) FindLeadByEmail(email string) (*models.Lead, error) {
	var lead models.Lead
	err := s.DB.Where("email = ?", email).Order("created_at DESC").First(&lead).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *GormStore) UpdateLeadScore(leadID uint, score int) error {
	return s.DB.Model(&models.Lead{}).Where("id = ?", leadID).
		Updates(map[string]interface{}{
			"score":        score,
			"last_contact": time.Now(),
		}).Error
}

func (s *GormStore) RecordActivity(activity *models.LeadActivity) error {
	return s.DB.Create(activity).Error
}

func (s *GormStore) UnsubscribeLead(leadID uint) error {
	return campaign.Unsubscribe(s.DB, leadID)
}
