package campaign

import "strings"

// Intent categories produced by classification
const (
	IntentAppointment = "appointment"
	IntentPricing     = "pricing"
	IntentDesign      = "design"
	IntentQuestion    = "question"
	IntentComplaint   = "complaint"
	IntentUnsubscribe = "unsubscribe"
	IntentUnknown     = "unknown"
)

// Classification is the structured result of intent analysis on an inbound
// message, whether it came from the AI service or the local fallback.
type Classification struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Sentiment  string   `json:"sentiment"` // positive, neutral, negative
	Urgency    string   `json:"urgency"`   // low, medium, high
	Keywords   []string `json:"keywords"`
}

// Auto-reply gate thresholds
const (
	AutoReplyConfidence   = 0.6
	ReviewConfidenceFloor = 0.7
)

var intentDeltas = map[string]int{
	IntentAppointment: 25,
	IntentPricing:     20,
	IntentDesign:      15,
	IntentQuestion:    5,
	IntentUnsubscribe: -10,
	IntentComplaint:   -20,
}

var highValueKeywords = []string{
	"budget", "ready", "timeline", "this year", "financing",
	"appointment", "consultation", "quote", "start", "asap",
}

// ScoreLead combines intent, urgency, sentiment and keyword signals into a
// bounded score. Pure and total: any input lands in [0, 100].
func ScoreLead(c *Classification) int {
	score := 50

	score += intentDeltas[c.Intent]

	switch c.Urgency {
	case "high":
		score += 15
	case "medium":
		score += 5
	}

	switch c.Sentiment {
	case "positive":
		score += 10
	case "negative":
		score -= 5
	}

	for _, kw := range c.Keywords {
		if isHighValueKeyword(kw) {
			score += 5
		}
	}

	score = int(float64(score) * c.Confidence)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// NeedsHumanReview flags classifications that must not be auto-answered:
// ambiguity and risk always defer to a human.
func NeedsHumanReview(c *Classification) bool {
	if c.Confidence < ReviewConfidenceFloor {
		return true
	}
	if c.Intent == IntentUnknown || c.Intent == IntentComplaint {
		return true
	}
	return c.Urgency == "high"
}

// ShouldAutoReply is the confidence gate in front of the reply queue.
func ShouldAutoReply(c *Classification) bool {
	return c.Confidence > AutoReplyConfidence && !NeedsHumanReview(c)
}

func isHighValueKeyword(kw string) bool {
	kw = strings.ToLower(strings.TrimSpace(kw))
	for _, hv := range highValueKeywords {
		if kw == hv {
			return true
		}
	}
	return false
}
