package campaign

import (
	"sort"
	"time"

	"serenitypools/models"
)

// Campaign types
const (
	TypeVIP          = "vip"
	TypeNewLead      = "new_lead"
	TypeReactivation = "reactivation"
)

// VIPScoreThreshold routes high-scoring leads into the VIP campaign
const VIPScoreThreshold = 80

// Step is one timed email within a campaign. DayOffset counts from enrollment.
// When Dynamic is set the body is generated per lead through the completion
// service, with Body kept as the static fallback.
type Step struct {
	ID        string
	DayOffset int
	Subject   string
	Body      string
	Dynamic   bool
	Prompt    func(lead *models.Lead) string
}

// Definition is a code-defined campaign: an ordered list of steps plus the
// predicate that decides whether a lead qualifies. Definitions are immutable;
// per-lead state lives on models.CampaignInstance.
type Definition struct {
	Type     string
	Name     string
	Priority int
	Steps    []Step
	Enroll   func(lead *models.Lead) bool
}

var registry = []Definition{
	{
		Type:     TypeVIP,
		Name:     "VIP White Glove",
		Priority: 30,
		Enroll: func(lead *models.Lead) bool {
			return lead.Score >= VIPScoreThreshold ||
				lead.BudgetRange == "100k-150k" ||
				lead.BudgetRange == "150k-plus"
		},
		Steps: []Step{
			{
				ID:        "vip_welcome",
				DayOffset: 0,
				Subject:   "{{firstName}}, your private pool consultation awaits",
				Body: "Hi {{firstName}},\n\nThank you for considering Serenity Custom Pools for your {{projectType}} project. " +
					"Projects at your level deserve a dedicated designer, so I've reserved time on our senior design team's calendar this week.\n\n" +
					"Reply to this email or call us directly and we'll lock in a time that works for you.\n\nAdam Diaz\nFounder, Serenity Custom Pools",
				Dynamic: true,
				Prompt: func(lead *models.Lead) string {
					return "Write a short, warm, personal email (no subject line) from Adam Diaz, founder of Serenity Custom Pools, " +
						"to a high-budget prospect named " + displayName(lead) + " in " + lead.City +
						" who is interested in a " + lead.ProjectType + " project with budget " + lead.BudgetRange +
						". Invite them to a private design consultation this week. Keep it under 120 words, plain text, no placeholders."
				},
			},
			{
				ID:        "vip_portfolio",
				DayOffset: 1,
				Subject:   "Three backyards we built for clients like you",
				Body: "Hi {{firstName}},\n\nI pulled three recent builds in the {{city}} area that match the scope you described. " +
					"Each one started with a design session exactly like the one we're holding for you.\n\n" +
					"When you're ready, just reply with a couple of times that suit you.\n\nAdam",
			},
			{
				ID:        "vip_design_session",
				DayOffset: 3,
				Subject:   "Your 3D design session — still holding your spot",
				Body: "Hi {{firstName}},\n\nWe're still holding a design session slot for your {{projectType}} project. " +
					"In one hour you'll walk away with a 3D concept of your backyard and a realistic budget range.\n\n" +
					"Would this week or next work better?\n\nAdam",
			},
			{
				ID:        "vip_final",
				DayOffset: 7,
				Subject:   "Should I release your consultation slot?",
				Body: "Hi {{firstName}},\n\nI don't want to crowd your inbox. If the timing isn't right for your {{projectType}} project, " +
					"no problem at all — just let me know and I'll check back in a few months.\n\n" +
					"If you're still interested, reply and we'll get you on the calendar.\n\nAdam",
			},
		},
	},
	{
		Type:     TypeNewLead,
		Name:     "New Lead Nurture",
		Priority: 20,
		Enroll: func(lead *models.Lead) bool {
			return time.Since(lead.CreatedAt) <= 30*24*time.Hour
		},
		Steps: []Step{
			{
				ID:        "welcome",
				DayOffset: 0,
				Subject:   "Thanks for reaching out, {{firstName}}!",
				Body: "Hi {{firstName}},\n\nThanks for telling us about your {{projectType}} project. " +
					"We build custom pools across the {{city}} area and we'd love to learn more about what you have in mind.\n\n" +
					"One of our designers will reach out shortly. In the meantime, feel free to reply with any questions.\n\nThe Serenity Custom Pools Team",
			},
			{
				ID:        "how_it_works",
				DayOffset: 2,
				Subject:   "How a custom pool comes together (in 4 steps)",
				Body: "Hi {{firstName}},\n\nMost of our clients have never built a pool before, so here's how it works:\n\n" +
					"1. Design session — we turn your ideas into a 3D concept\n" +
					"2. Proposal — a fixed price, not an estimate\n" +
					"3. Permits and excavation — we handle the paperwork\n" +
					"4. Construction — most builds finish in 10-14 weeks\n\n" +
					"Ready to start with step 1? Just reply to this email.\n\nThe Serenity Custom Pools Team",
			},
			{
				ID:        "financing",
				DayOffset: 5,
				Subject:   "What does a {{projectType}} project actually cost?",
				Body: "Hi {{firstName}},\n\nThe honest answer: it depends on the site, the finishes, and the features you pick. " +
					"That's why we do a design session first — you get a real number before committing to anything.\n\n" +
					"Want us to put together a rough range for your project in {{city}}? Reply and tell us a bit more.\n\nThe Serenity Custom Pools Team",
				Dynamic: true,
				Prompt: func(lead *models.Lead) string {
					return "Write a short, friendly email (no subject line) from the Serenity Custom Pools team to " + displayName(lead) +
						" about typical costs and timeline for a " + lead.ProjectType + " pool project" +
						", acknowledging their stated budget of " + lead.BudgetRange +
						". Encourage them to book a free design session. Under 130 words, plain text, no placeholders."
				},
			},
			{
				ID:        "social_proof",
				DayOffset: 9,
				Subject:   "\"We should have done this years ago\"",
				Body: "Hi {{firstName}},\n\nThat's what the Hendersons told us the first weekend in their new pool. " +
					"We've finished over 200 backyards, and the most common regret we hear is waiting too long to start.\n\n" +
					"If you'd like to see projects near {{city}}, reply and we'll send a few over.\n\nThe Serenity Custom Pools Team",
			},
			{
				ID:        "last_call",
				DayOffset: 14,
				Subject:   "Closing the loop on your pool project",
				Body: "Hi {{firstName}},\n\nI'll stop filling your inbox after this one. If the project is on hold, totally understood — " +
					"we'll be here when the timing is right.\n\n" +
					"If you'd still like that free design session, one quick reply is all it takes.\n\nThe Serenity Custom Pools Team",
			},
		},
	},
	{
		Type:     TypeReactivation,
		Name:     "Reactivation",
		Priority: 10,
		Enroll: func(lead *models.Lead) bool {
			return time.Since(lead.CreatedAt) > 30*24*time.Hour
		},
		Steps: []Step{
			{
				ID:        "checking_in",
				DayOffset: 0,
				Subject:   "Still thinking about that {{projectType}} project?",
				Body: "Hi {{firstName}},\n\nYou reached out to us a while back about a {{projectType}} project in {{city}}. " +
					"Backyard plans have a way of going quiet over the busy months, so I wanted to check in.\n\n" +
					"If it's still on your mind, reply and we'll pick up right where we left off.\n\nThe Serenity Custom Pools Team",
			},
			{
				ID:        "whats_new",
				DayOffset: 4,
				Subject:   "A few things have changed since we last talked",
				Body: "Hi {{firstName}},\n\nSince you first inquired, we've added new financing partners and our design team " +
					"has fresh availability for the upcoming season.\n\n" +
					"Happy to put together an updated picture for your project — just reply.\n\nThe Serenity Custom Pools Team",
			},
			{
				ID:        "goodbye",
				DayOffset: 10,
				Subject:   "We'll leave the gate open",
				Body: "Hi {{firstName}},\n\nThis is our last note. If a pool is ever back on the agenda, we'd love to hear from you — " +
					"your project details are saved and a design session is always free.\n\nAll the best,\nThe Serenity Custom Pools Team",
			},
		},
	},
}

// Definitions returns all campaign definitions sorted by priority descending.
func Definitions() []Definition {
	defs := make([]Definition, len(registry))
	copy(defs, registry)
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].Priority > defs[j].Priority
	})
	return defs
}

// DefinitionByType looks up a campaign definition, nil if unknown.
func DefinitionByType(campaignType string) *Definition {
	for i := range registry {
		if registry[i].Type == campaignType {
			return &registry[i]
		}
	}
	return nil
}

func displayName(lead *models.Lead) string {
	if lead.FirstName != "" {
		return lead.FirstName
	}
	return "there"
}
