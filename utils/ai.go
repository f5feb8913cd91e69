package utils

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"serenitypools/campaign"
	"serenitypools/config"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
)

// AIClient talks to the generative-text service for intent classification and
// per-step personalization. Every call has a deterministic local fallback so
// an outage never breaks the engagement engine.
type AIClient struct {
	apiKey   string
	endpoint string
	model    string
	client   *fasthttp.Client
	logger   *logrus.Logger
}

func NewAIClient(logger *logrus.Logger) *AIClient {
	return &AIClient{
		apiKey:   config.AppConfig.AI.APIKey,
		endpoint: config.AppConfig.AI.Endpoint,
		model:    config.AppConfig.AI.Model,
		client: &fasthttp.Client{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ClassifyIntent analyzes an inbound message. It returns a usable
// classification in every case: service errors drop to the local
// pattern-matching classifier.
func (ai *AIClient) ClassifyIntent(content, subject, from string) *campaign.Classification {
	if ai.apiKey == "" {
		return FallbackClassify(content, subject)
	}

	prompt := fmt.Sprintf(
		"Classify this inbound email from a swimming pool construction lead.\n"+
			"From: %s\nSubject: %s\nBody:\n%s\n\n"+
			"Respond with ONLY a JSON object: {\"intent\": one of "+
			"[appointment, pricing, design, question, complaint, unsubscribe, unknown], "+
			"\"confidence\": 0.0-1.0, \"sentiment\": one of [positive, neutral, negative], "+
			"\"urgency\": one of [low, medium, high], \"keywords\": [matched phrases]}",
		from, subject, content)

	raw, err := ai.chat(prompt)
	if err != nil {
		ai.logger.WithError(err).Warn("AI classification failed, using fallback classifier")
		return FallbackClassify(content, subject)
	}

	var c campaign.Classification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &c); err != nil {
		ai.logger.WithError(err).Warn("AI classification returned malformed JSON, using fallback classifier")
		return FallbackClassify(content, subject)
	}
	if c.Intent == "" {
		c.Intent = campaign.IntentUnknown
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return &c
}

// Complete generates free text for dynamic campaign steps. The caller falls
// back to the static template on error, so an unconfigured client just errors.
func (ai *AIClient) Complete(prompt string) (string, error) {
	if ai.apiKey == "" {
		return "", fmt.Errorf("AI completion service not configured")
	}
	return ai.chat(prompt)
}

func (ai *AIClient) chat(prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    ai.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(ai.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+ai.apiKey)
	req.SetBody(body)

	if err := ai.client.DoTimeout(req, resp, 45*time.Second); err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("completion service returned status %d", resp.StatusCode())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion service returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// extractJSON pulls the first {...} block out of a model response that may be
// wrapped in prose or code fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

var intentPatterns = []struct {
	intent   string
	patterns []string
}{
	{campaign.IntentUnsubscribe, []string{"unsubscribe", "remove me", "stop emailing", "take me off"}},
	{campaign.IntentComplaint, []string{"complaint", "disappointed", "unacceptable", "refund", "terrible", "worst"}},
	{campaign.IntentAppointment, []string{"appointment", "schedule", "consultation", "meet", "come out", "visit", "available"}},
	{campaign.IntentPricing, []string{"price", "pricing", "cost", "how much", "quote", "estimate", "budget", "financing"}},
	{campaign.IntentDesign, []string{"design", "3d", "render", "layout", "shape", "tile", "feature", "waterfall"}},
	{campaign.IntentQuestion, []string{"question", "wondering", "curious", "how long", "what about", "?"}},
}

var urgentPhrases = []string{"asap", "urgent", "right away", "immediately", "today", "this week"}

var positiveWords = []string{"thanks", "thank you", "great", "excited", "love", "perfect", "awesome"}

var negativeWords = []string{"disappointed", "frustrated", "annoyed", "bad", "terrible", "waste", "unacceptable"}

var fallbackKeywords = []string{
	"budget", "ready", "timeline", "this year", "financing",
	"appointment", "consultation", "quote", "start", "asap",
}

// FallbackClassify is the deterministic pattern-matching classifier used when
// the AI service errors or is unconfigured. Confidence is intentionally
// conservative: a single weak signal stays below the auto-reply gate.
func FallbackClassify(content, subject string) *campaign.Classification {
	text := strings.ToLower(subject + " " + content)

	c := &campaign.Classification{
		Intent:     campaign.IntentUnknown,
		Confidence: 0.3,
		Sentiment:  "neutral",
		Urgency:    "low",
	}

	for _, ip := range intentPatterns {
		matches := 0
		for _, p := range ip.patterns {
			if strings.Contains(text, p) {
				matches++
			}
		}
		if matches > 0 {
			c.Intent = ip.intent
			c.Confidence = 0.5 + 0.15*float64(matches)
			if c.Confidence > 0.9 {
				c.Confidence = 0.9
			}
			break
		}
	}

	for _, p := range urgentPhrases {
		if strings.Contains(text, p) {
			c.Urgency = "high"
			break
		}
	}
	if c.Urgency == "low" && strings.Contains(text, "soon") {
		c.Urgency = "medium"
	}

	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			c.Sentiment = "positive"
			break
		}
	}
	if c.Sentiment == "neutral" {
		for _, w := range negativeWords {
			if strings.Contains(text, w) {
				c.Sentiment = "negative"
				break
			}
		}
	}

	for _, kw := range fallbackKeywords {
		if strings.Contains(text, kw) {
			c.Keywords = append(c.Keywords, kw)
		}
	}

	return c
}
