package worker

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"serenitypools/campaign"
	"serenitypools/models"
)

// Classifier produces a structured intent analysis for an inbound message.
// Implemented by the AI client, which always returns a usable result.
type Classifier interface {
	ClassifyIntent(content, subject, from string) *campaign.Classification
}

// InboundMessage is one inbound email as delivered by the inbox sync or the
// inbound webhook.
type InboundMessage struct {
	MessageID  string
	ThreadID   string
	From       string
	To         string
	Subject    string
	Body       string
	BodyHTML   string
	ReceivedAt time.Time
}

// InboundPipeline classifies inbound messages, scores the lead, and decides
// between an automatic reply and human follow-up. Callers must only mark the
// upstream message as read after HandleInbound returns nil; that is what makes
// the in-memory reply queue safe to lose.
type InboundPipeline struct {
	store      InboundStore
	classifier Classifier
	completer  campaign.Completer
	queue      *AutoReplyWorker
	logger     *log.Logger
}

func NewInboundPipeline(store InboundStore, classifier Classifier, completer campaign.Completer, queue *AutoReplyWorker, logger *log.Logger) *InboundPipeline {
	return &InboundPipeline{
		store:      store,
		classifier: classifier,
		completer:  completer,
		queue:      queue,
		logger:     logger,
	}
}

func (p *InboundPipeline) HandleInbound(msg InboundMessage) error {
	if msg.MessageID == "" {
		return fmt.Errorf("inbound message has no message ID")
	}

	exists, err := p.store.InboundExists(msg.MessageID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate message: %w", err)
	}
	if exists {
		// Already handled on a previous sync pass.
		return nil
	}

	fromAddr := extractEmailAddress(msg.From)

	lead, err := p.store.FindLeadByEmail(fromAddr)
	if err != nil {
		return fmt.Errorf("failed to look up lead: %w", err)
	}

	clas := p.classifier.ClassifyIntent(msg.Body, msg.Subject, fromAddr)

	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	inbound := &models.InboundEmail{
		MessageID:   msg.MessageID,
		ThreadID:    msg.ThreadID,
		From:        msg.From,
		To:          msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
		BodyHTML:    msg.BodyHTML,
		ReceivedAt:  receivedAt,
		Intent:      clas.Intent,
		Confidence:  clas.Confidence,
		Sentiment:   clas.Sentiment,
		Urgency:     clas.Urgency,
		NeedsReview: campaign.NeedsHumanReview(clas),
	}
	if lead != nil {
		inbound.LeadID = &lead.ID
	}

	// Unsubscribe requests are honored regardless of confidence.
	if clas.Intent == campaign.IntentUnsubscribe && lead != nil {
		if err := p.store.UnsubscribeLead(lead.ID); err != nil {
			return fmt.Errorf("failed to unsubscribe lead %d: %w", lead.ID, err)
		}
		inbound.NeedsReview = false
		inbound.IsRead = true
		return p.store.SaveInbound(inbound)
	}

	var reply *QueueItem
	if lead != nil && campaign.ShouldAutoReply(clas) {
		subject, body, ok := campaign.RenderAutoReply(clas.Intent, lead)
		if ok {
			if p.completer != nil {
				if gen, err := p.completer.Complete(replyPrompt(msg, lead, clas)); err == nil && strings.TrimSpace(gen) != "" {
					body = gen
				} else if err != nil {
					p.logger.Printf("Reply generation failed, using static template: %v", err)
				}
			}
			reply = &QueueItem{
				MessageID:   msg.MessageID,
				To:          fromAddr,
				Subject:     subject,
				TextContent: body,
				ThreadID:    msg.MessageID,
				LeadID:      &lead.ID,
			}
			inbound.AutoReplied = true
		} else {
			inbound.NeedsReview = true
		}
	}

	if err := p.store.SaveInbound(inbound); err != nil {
		return fmt.Errorf("failed to save inbound message: %w", err)
	}

	if lead != nil {
		score := campaign.ScoreLead(clas)
		if err := p.store.UpdateLeadScore(lead.ID, score); err != nil {
			p.logger.Printf("Failed to update score for lead %d: %v", lead.ID, err)
		}

		activityType := "replied"
		if inbound.NeedsReview {
			activityType = "flagged_review"
		}
		if err := p.store.RecordActivity(&models.LeadActivity{
			LeadID:       lead.ID,
			ActivityType: activityType,
			ActivityAt:   receivedAt,
			Details:      fmt.Sprintf("intent=%s confidence=%.2f score=%d", clas.Intent, clas.Confidence, score),
		}); err != nil {
			p.logger.Printf("Failed to record activity for lead %d: %v", lead.ID, err)
		}
	}

	// Queue last so a failed save can't produce a duplicate reply when the
	// sync retries the message.
	if reply != nil {
		p.queue.AddToQueue(reply)
	} else if inbound.NeedsReview {
		p.logger.Printf("Inbound %s flagged for human review (intent=%s confidence=%.2f)",
			msg.MessageID, clas.Intent, clas.Confidence)
	}

	return nil
}

func replyPrompt(msg InboundMessage, lead *models.Lead, clas *campaign.Classification) string {
	name := lead.FirstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"Write a short, friendly reply email (no subject line) from the Serenity Custom Pools team to %s, "+
			"a pool construction lead who wrote:\n\n%s\n\n"+
			"Their message was classified as %s intent. Acknowledge their message, answer at a high level, "+
			"and let them know a team member will follow up personally. Under 100 words, plain text, no placeholders.",
		name, msg.Body, clas.Intent)
}

func extractEmailAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.TrimSpace(from))
}
