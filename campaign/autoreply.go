package campaign

import "serenitypools/models"

var replyTemplates = map[string]struct {
	Subject string
	Body    string
}{
	IntentAppointment: {
		Subject: "Re: Let's get your consultation scheduled",
		Body: "Hi {{firstName}},\n\nGreat to hear from you! We'd love to get a design consultation on the calendar. " +
			"Our team will follow up shortly to confirm a time, or you can call us at (555) 014-7665 to lock one in right away.\n\n" +
			"Talk soon,\nThe Serenity Custom Pools Team",
	},
	IntentPricing: {
		Subject: "Re: Your pricing question",
		Body: "Hi {{firstName}},\n\nThanks for asking about pricing. Every build is priced from the actual design, " +
			"which is why our design session comes first — it ends with a fixed number, not an estimate.\n\n" +
			"We'll send over typical ranges for a {{projectType}} project, and a designer will be in touch to talk specifics.\n\n" +
			"The Serenity Custom Pools Team",
	},
	IntentDesign: {
		Subject: "Re: Your design ideas",
		Body: "Hi {{firstName}},\n\nLove that you're thinking about the design details — that's the fun part. " +
			"Our designers can model all of it in 3D before anything gets built.\n\n" +
			"We'll reach out shortly to set up a session and dig into your ideas.\n\n" +
			"The Serenity Custom Pools Team",
	},
	IntentQuestion: {
		Subject: "Re: Your question",
		Body: "Hi {{firstName}},\n\nThanks for your question! A member of our team is reviewing it and will get back to you " +
			"with a proper answer shortly.\n\nThe Serenity Custom Pools Team",
	},
}

// RenderAutoReply produces the static reply for an intent, rendered against
// the lead. Returns ok=false for intents that never get an automatic answer.
func RenderAutoReply(intent string, lead *models.Lead) (subject, body string, ok bool) {
	tmpl, found := replyTemplates[intent]
	if !found {
		return "", "", false
	}
	l := lead
	if l == nil {
		l = &models.Lead{}
	}
	return RenderTemplate(tmpl.Subject, l), RenderTemplate(tmpl.Body, l), true
}
