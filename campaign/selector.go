package campaign

import "serenitypools/models"

// DetermineCampaignForLead evaluates all enrollment predicates in priority
// order (highest first) and returns the matching campaign type, or "" when no
// campaign wants the lead. It does not check for an existing active instance;
// EnrollLead does that atomically at the store layer.
func DetermineCampaignForLead(lead *models.Lead) string {
	for _, def := range Definitions() {
		if def.Enroll(lead) {
			return def.Type
		}
	}
	return ""
}
