package campaign

import (
	"testing"
	"time"

	"serenitypools/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionsOrderedByPriority(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 3)

	assert.Equal(t, TypeVIP, defs[0].Type)
	assert.Equal(t, TypeNewLead, defs[1].Type)
	assert.Equal(t, TypeReactivation, defs[2].Type)

	for i := 1; i < len(defs); i++ {
		assert.Greater(t, defs[i-1].Priority, defs[i].Priority)
	}
}

func TestDefinitionStepsAreWellFormed(t *testing.T) {
	for _, def := range Definitions() {
		require.NotEmpty(t, def.Steps, "campaign %s has no steps", def.Type)
		assert.Equal(t, 0, def.Steps[0].DayOffset, "campaign %s must start at day 0", def.Type)

		seen := map[string]bool{}
		for i, step := range def.Steps {
			assert.NotEmpty(t, step.ID, "campaign %s step %d has no ID", def.Type, i)
			assert.NotEmpty(t, step.Subject, "campaign %s step %s has no subject", def.Type, step.ID)
			assert.NotEmpty(t, step.Body, "campaign %s step %s has no body", def.Type, step.ID)
			assert.False(t, seen[step.ID], "campaign %s duplicate step ID %s", def.Type, step.ID)
			seen[step.ID] = true

			if step.Dynamic {
				assert.NotNil(t, step.Prompt, "dynamic step %s needs a prompt builder", step.ID)
			}
			if i > 0 {
				assert.Greater(t, step.DayOffset, def.Steps[i-1].DayOffset,
					"campaign %s offsets must strictly increase", def.Type)
			}
		}
	}
}

func TestDynamicStepPromptsRender(t *testing.T) {
	lead := &models.Lead{
		FirstName:   "Dana",
		City:        "Austin",
		ProjectType: "inground",
		BudgetRange: "150k-plus",
	}

	for _, def := range Definitions() {
		for _, step := range def.Steps {
			if !step.Dynamic {
				continue
			}
			prompt := step.Prompt(lead)
			assert.NotEmpty(t, prompt, "step %s produced an empty prompt", step.ID)
			assert.Contains(t, prompt, "Dana", "step %s prompt ignores the lead", step.ID)
			assert.Contains(t, prompt, "no placeholders", "step %s prompt missing output constraints", step.ID)
		}
	}
}

func TestDefinitionByType(t *testing.T) {
	def := DefinitionByType(TypeVIP)
	require.NotNil(t, def)
	assert.Equal(t, "VIP White Glove", def.Name)

	assert.Nil(t, DefinitionByType("does-not-exist"))
}

func TestDetermineCampaignForLead(t *testing.T) {
	fresh := time.Now().Add(-24 * time.Hour)
	stale := time.Now().Add(-60 * 24 * time.Hour)

	tests := []struct {
		name string
		lead models.Lead
		want string
	}{
		{
			name: "high budget goes VIP",
			lead: models.Lead{BudgetRange: "150k-plus"},
			want: TypeVIP,
		},
		{
			name: "high score goes VIP even with modest budget",
			lead: models.Lead{Score: 85, BudgetRange: "under-50k"},
			want: TypeVIP,
		},
		{
			name: "fresh high budget lead still goes VIP over nurture",
			lead: models.Lead{BudgetRange: "100k-150k"},
			want: TypeVIP,
		},
		{
			name: "fresh ordinary lead goes to nurture",
			lead: models.Lead{BudgetRange: "50k-75k"},
			want: TypeNewLead,
		},
		{
			name: "stale lead goes to reactivation",
			lead: models.Lead{BudgetRange: "under-50k"},
			want: TypeReactivation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == TypeReactivation {
				tt.lead.CreatedAt = stale
			} else {
				tt.lead.CreatedAt = fresh
			}
			assert.Equal(t, tt.want, DetermineCampaignForLead(&tt.lead))
		})
	}
}
