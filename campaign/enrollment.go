package campaign

import (
	"time"

	"serenitypools/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnrollLead selects a campaign for the lead and creates the instance. The
// lead row is locked for the duration of the transaction, so two concurrent
// enrollments serialize and only one creates an active instance; a partial
// unique index on active instances backs this up at the database level.
// Returns (nil, nil) when no campaign matches or the lead is already enrolled.
func EnrollLead(db *gorm.DB, lead *models.Lead, timezone string) (*models.CampaignInstance, error) {
	if lead.IsUnsubscribed {
		return nil, nil
	}

	campaignType := DetermineCampaignForLead(lead)
	if campaignType == "" {
		return nil, nil
	}

	if timezone == "" {
		timezone = DefaultTimezone
	}

	var inst *models.CampaignInstance
	err := db.Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent enrollments of the same lead. Without the lock
		// two transactions can both count zero active instances at read
		// committed isolation.
		var locked models.Lead
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&locked, lead.ID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.CampaignInstance{}).
			Where("lead_id = ? AND status = ?", lead.ID, models.CampaignStatusActive).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			// Already enrolled: a refusal is a no-op, not an error.
			return nil
		}

		inst = &models.CampaignInstance{
			LeadID:       lead.ID,
			CampaignType: campaignType,
			Status:       models.CampaignStatusActive,
			EnrolledAt:   time.Now(),
			Timezone:     timezone,
		}
		if err := tx.Create(inst).Error; err != nil {
			return err
		}

		activity := models.LeadActivity{
			LeadID:             lead.ID,
			CampaignInstanceID: &inst.ID,
			ActivityType:       "enrolled",
			ActivityAt:         time.Now(),
			Details:            campaignType,
		}
		return tx.Create(&activity).Error
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Unsubscribe stops every active campaign for the lead and marks the lead.
// This is the only write path into campaign state outside the scheduler loop.
func Unsubscribe(db *gorm.DB, leadID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Lead{}).Where("id = ?", leadID).
			Update("is_unsubscribed", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CampaignInstance{}).
			Where("lead_id = ? AND status = ?", leadID, models.CampaignStatusActive).
			Updates(map[string]interface{}{
				"unsubscribed": true,
				"status":       models.CampaignStatusStopped,
			}).Error; err != nil {
			return err
		}
		activity := models.LeadActivity{
			LeadID:       leadID,
			ActivityType: "unsubscribed",
			ActivityAt:   time.Now(),
		}
		return tx.Create(&activity).Error
	})
}
