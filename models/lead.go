package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead represents a prospect captured from the website or an inbound inquiry
type Lead struct {
	gorm.Model
	Email     string `gorm:"not null;index" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`

	// Project details from the quote form
	City        string `json:"city"`
	ProjectType string `json:"project_type"` // inground, renovation, spa, outdoor-living
	BudgetRange string `json:"budget_range"` // under-50k, 50k-75k, 75k-100k, 100k-150k, 150k-plus
	Message     string `gorm:"type:text" json:"message"`

	// Scoring and routing
	Score    int    `gorm:"default:0" json:"score"`
	Timezone string `json:"timezone"`

	// Status
	IsUnsubscribed bool `gorm:"default:false" json:"is_unsubscribed"`

	// Metadata
	Source      string     `json:"source"` // website, referral, affiliate
	LastContact *time.Time `json:"last_contact"`

	// Relations
	CampaignInstances []CampaignInstance `gorm:"foreignKey:LeadID" json:"campaigns,omitempty"`
	Activities        []LeadActivity     `gorm:"foreignKey:LeadID" json:"activities,omitempty"`
}

// LeadActivity tracks everything that happened to a lead
type LeadActivity struct {
	gorm.Model
	LeadID             uint  `gorm:"not null;index" json:"lead_id"`
	CampaignInstanceID *uint `json:"campaign_instance_id,omitempty"`

	ActivityType string    `gorm:"not null" json:"activity_type"` // enrolled, sent, replied, auto_replied, flagged_review, unsubscribed
	ActivityAt   time.Time `gorm:"not null" json:"activity_at"`
	Details      string    `gorm:"type:text" json:"details"`

	// Relations
	Lead Lead `json:"-"`
}
