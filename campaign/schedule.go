package campaign

import (
	"time"

	"serenitypools/models"
)

// DuplicateSendWindow guards against double sends when ticks overlap or an
// operator re-triggers the scheduler. Heuristic, single-process only.
const DuplicateSendWindow = 30 * time.Minute

// ShouldSendNextEmail decides whether an instance is due for its current step.
// Pure predicate over the instance and the clock.
func ShouldSendNextEmail(inst *models.CampaignInstance, totalSteps int, now time.Time) bool {
	if inst.Status != models.CampaignStatusActive || inst.Unsubscribed {
		return false
	}
	if inst.CurrentStepIndex >= totalSteps {
		return false
	}
	if inst.LastSentAt != nil && now.Sub(*inst.LastSentAt) < DuplicateSendWindow {
		return false
	}
	if inst.NextSendAt != nil {
		return inst.NextSendAt.Before(now)
	}
	// First email goes out immediately after enrollment.
	return inst.CurrentStepIndex == 0
}
