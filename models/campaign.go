package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign instance statuses
const (
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusStopped   = "stopped"
)

// CampaignInstance is one lead's enrollment in a drip campaign. At most one
// active instance exists per lead; the store enforces this on creation.
type CampaignInstance struct {
	gorm.Model
	LeadID       uint   `gorm:"not null;index" json:"lead_id"`
	CampaignType string `gorm:"not null;index" json:"campaign_type"`

	CurrentStepIndex int    `gorm:"default:0" json:"current_step_index"`
	Status           string `gorm:"default:'active';index" json:"status"`

	EnrolledAt  time.Time  `gorm:"not null" json:"enrolled_at"`
	LastSentAt  *time.Time `json:"last_sent_at"`
	NextSendAt  *time.Time `json:"next_send_at"`
	CompletedAt *time.Time `json:"completed_at"`

	Unsubscribed bool   `gorm:"default:false" json:"unsubscribed"`
	Timezone     string `json:"timezone"`

	// Relations
	Lead   Lead            `json:"lead"`
	Emails []CampaignEmail `gorm:"foreignKey:CampaignInstanceID" json:"emails,omitempty"`
}

// CampaignEmail is the append-only send history, one row per attempted send.
// Used for audit and engagement tracking, never for scheduling decisions.
type CampaignEmail struct {
	gorm.Model
	CampaignInstanceID uint   `gorm:"not null;index" json:"campaign_instance_id"`
	LeadID             uint   `gorm:"not null;index" json:"lead_id"`
	StepID             string `gorm:"not null" json:"step_id"`

	Subject string    `json:"subject"`
	Body    string    `gorm:"type:text" json:"body"`
	SentAt  time.Time `gorm:"not null" json:"sent_at"`

	ProviderMessageID string `gorm:"index" json:"provider_message_id"`

	// Engagement tracking
	OpenedAt  *time.Time `json:"opened_at"`
	ClickedAt *time.Time `json:"clicked_at"`

	// Relations
	CampaignInstance CampaignInstance `json:"-"`
	Lead             Lead             `json:"-"`
}
