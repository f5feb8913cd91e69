package utils

import (
	"testing"

	"serenitypools/campaign"

	"github.com/stretchr/testify/assert"
)

func TestFallbackClassifyIntents(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
		intent  string
	}{
		{"unsubscribe request", "Stop", "Please unsubscribe me from these emails", campaign.IntentUnsubscribe},
		{"unsubscribe beats other matches", "Re: pricing", "Remove me from your list, I don't want the quote anymore", campaign.IntentUnsubscribe},
		{"complaint", "Not happy", "I'm disappointed with the lack of response", campaign.IntentComplaint},
		{"appointment", "Re: your pool", "Can we schedule a consultation next week?", campaign.IntentAppointment},
		{"pricing", "Question", "How much does an inground pool cost?", campaign.IntentPricing},
		{"design", "Ideas", "I'd love a waterfall feature in the layout", campaign.IntentDesign},
		{"bare question mark", "Re: your pool", "Is the crew licensed in my county?", campaign.IntentQuestion},
		{"nothing matches", "Hello", "Just saying hi", campaign.IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FallbackClassify(tt.body, tt.subject)
			assert.Equal(t, tt.intent, c.Intent)
		})
	}
}

func TestFallbackClassifyConfidence(t *testing.T) {
	// Unknown stays at the floor
	c := FallbackClassify("just saying hi", "hello")
	assert.Equal(t, campaign.IntentUnknown, c.Intent)
	assert.InDelta(t, 0.3, c.Confidence, 0.001)

	// One weak signal stays below the auto-reply gate
	c = FallbackClassify("can we meet?", "")
	assert.LessOrEqual(t, c.Confidence, campaign.AutoReplyConfidence+0.05)

	// Many signals cap at 0.9, never full confidence
	c = FallbackClassify("price pricing cost how much quote estimate budget financing", "")
	assert.Equal(t, campaign.IntentPricing, c.Intent)
	assert.InDelta(t, 0.9, c.Confidence, 0.001)
}

func TestFallbackClassifyUrgencyAndSentiment(t *testing.T) {
	c := FallbackClassify("We need a quote ASAP, thanks so much!", "")
	assert.Equal(t, "high", c.Urgency)
	assert.Equal(t, "positive", c.Sentiment)

	c = FallbackClassify("hoping to start soon", "")
	assert.Equal(t, "medium", c.Urgency)

	c = FallbackClassify("this has been a frustrating waste of time", "")
	assert.Equal(t, "negative", c.Sentiment)
}

func TestFallbackClassifyCollectsKeywords(t *testing.T) {
	c := FallbackClassify("Our budget is set and we're ready to start this year", "")
	assert.Contains(t, c.Keywords, "budget")
	assert.Contains(t, c.Keywords, "ready")
	assert.Contains(t, c.Keywords, "start")
	assert.Contains(t, c.Keywords, "this year")
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"intent":"pricing"}`,
		extractJSON("Here you go:\n```json\n{\"intent\":\"pricing\"}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON(`{"a":1}`))
	assert.Equal(t, "no json here", extractJSON("no json here"))
}
