package campaign

import (
	"log"
	"strings"

	"serenitypools/models"
)

// Completer generates free text for dynamic steps. Implemented by the AI
// client; any error falls back to the step's static body.
type Completer interface {
	Complete(prompt string) (string, error)
}

// ContentResolver turns a step plus a lead into a rendered subject and body.
type ContentResolver interface {
	Resolve(step Step, lead *models.Lead) (subject, body string)
}

// StaticResolver renders the step templates with the lead's fields.
type StaticResolver struct{}

func (StaticResolver) Resolve(step Step, lead *models.Lead) (string, string) {
	return RenderTemplate(step.Subject, lead), RenderTemplate(step.Body, lead)
}

// DynamicResolver uses the completion service for steps that declare a prompt
// builder, and falls back to the static template whenever the service errors.
// A personalization failure never blocks a send.
type DynamicResolver struct {
	Completer Completer
	Logger    *log.Logger
}

func (dr *DynamicResolver) Resolve(step Step, lead *models.Lead) (string, string) {
	subject := RenderTemplate(step.Subject, lead)

	if !step.Dynamic || step.Prompt == nil || dr.Completer == nil {
		return subject, RenderTemplate(step.Body, lead)
	}

	body, err := dr.Completer.Complete(step.Prompt(lead))
	if err != nil || strings.TrimSpace(body) == "" {
		if dr.Logger != nil {
			dr.Logger.Printf("Dynamic content failed for step %s, using static template: %v", step.ID, err)
		}
		return subject, RenderTemplate(step.Body, lead)
	}

	return subject, body
}

// RenderTemplate resolves {{placeholder}} tokens against the lead's fields.
func RenderTemplate(tmpl string, lead *models.Lead) string {
	firstName := lead.FirstName
	if firstName == "" {
		firstName = "there"
	}
	city := lead.City
	if city == "" {
		city = "your area"
	}
	projectType := lead.ProjectType
	if projectType == "" {
		projectType = "pool"
	}

	r := strings.NewReplacer(
		"{{firstName}}", firstName,
		"{{lastName}}", lead.LastName,
		"{{city}}", city,
		"{{projectType}}", projectType,
		"{{budgetRange}}", lead.BudgetRange,
		"{{email}}", lead.Email,
	)
	return r.Replace(tmpl)
}
