package campaign

import (
	"testing"
	"time"

	"serenitypools/models"

	"github.com/stretchr/testify/assert"
)

func TestShouldSendNextEmail(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	past := now.Add(-2 * time.Hour)
	future := now.Add(2 * time.Hour)
	justSent := now.Add(-10 * time.Minute)

	tests := []struct {
		name string
		inst models.CampaignInstance
		want bool
	}{
		{
			name: "due instance sends",
			inst: models.CampaignInstance{Status: models.CampaignStatusActive, CurrentStepIndex: 1, NextSendAt: &past},
			want: true,
		},
		{
			name: "not due yet",
			inst: models.CampaignInstance{Status: models.CampaignStatusActive, CurrentStepIndex: 1, NextSendAt: &future},
			want: false,
		},
		{
			name: "paused instance never sends",
			inst: models.CampaignInstance{Status: models.CampaignStatusPaused, CurrentStepIndex: 1, NextSendAt: &past},
			want: false,
		},
		{
			name: "unsubscribed instance never sends",
			inst: models.CampaignInstance{Status: models.CampaignStatusActive, Unsubscribed: true, NextSendAt: &past},
			want: false,
		},
		{
			name: "steps exhausted",
			inst: models.CampaignInstance{Status: models.CampaignStatusActive, CurrentStepIndex: 5, NextSendAt: &past},
			want: false,
		},
		{
			name: "recent send suppresses even a due step",
			inst: models.CampaignInstance{Status: models.CampaignStatusActive, CurrentStepIndex: 1, NextSendAt: &past, LastSentAt: &justSent},
			want: false,
		},
		{
			name: "fresh enrollment sends the first step immediately",
			inst: models.CampaignInstance{Status: models.CampaignStatusActive, CurrentStepIndex: 0},
			want: true,
		},
		{
			name: "no next send time on a later step waits",
			inst: models.CampaignInstance{Status: models.CampaignStatusActive, CurrentStepIndex: 2},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSendNextEmail(&tt.inst, 5, now))
		})
	}
}
