package models

import (
	"time"

	"gorm.io/gorm"
)

// InboundEmail is an inbound message from a lead, stored by the inbox sync or
// the inbound webhook. MessageID is unique so re-syncing the same message is a
// no-op, which is what makes the in-memory reply queue safe to lose on restart.
type InboundEmail struct {
	gorm.Model
	MessageID string `gorm:"not null;uniqueIndex" json:"message_id"`
	ThreadID  string `gorm:"index" json:"thread_id"`
	LeadID    *uint  `gorm:"index" json:"lead_id,omitempty"`

	From     string `gorm:"not null" json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `gorm:"type:text" json:"body"`
	BodyHTML string `gorm:"type:text" json:"body_html"`

	ReceivedAt time.Time `gorm:"not null" json:"received_at"`

	// Classification results
	Intent     string  `json:"intent"` // appointment, pricing, design, question, complaint, unsubscribe, unknown
	Confidence float64 `json:"confidence"`
	Sentiment  string  `json:"sentiment"` // positive, neutral, negative
	Urgency    string  `json:"urgency"`   // low, medium, high

	// Routing outcome
	NeedsReview bool `gorm:"default:false;index" json:"needs_review"`
	AutoReplied bool `gorm:"default:false" json:"auto_replied"`
	IsRead      bool `gorm:"default:false" json:"is_read"`

	// Relations
	Lead *Lead `json:"lead,omitempty"`
}
