package utils

import (
	"fmt"
	"log"

	"serenitypools/config"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// Email is one outbound message handed to a Transport.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ThreadID string
}

// Transport dispatches a single email and returns the provider message ID.
// Implementations must be safe to call repeatedly; failures come back as
// errors, never panics.
type Transport interface {
	Send(email Email) (string, error)
}

// SMTPMailer sends through the configured SMTP relay via gomail.
type SMTPMailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	logger    *log.Logger
}

func NewSMTPMailer(logger *log.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:      config.AppConfig.SMTPHost,
		port:      config.AppConfig.SMTPPort,
		username:  config.AppConfig.SMTPUsername,
		password:  config.AppConfig.SMTPPassword,
		fromEmail: config.AppConfig.FromEmail,
		fromName:  config.AppConfig.FromName,
		logger:    logger,
	}
}

func (sm *SMTPMailer) Send(email Email) (string, error) {
	if sm.host == "" {
		return "", fmt.Errorf("SMTP transport not configured")
	}

	messageID := fmt.Sprintf("<%s@serenitycustompools.com>", uuid.New().String())

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", sm.fromName, sm.fromEmail))
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("Message-ID", messageID)
	if email.ThreadID != "" {
		m.SetHeader("In-Reply-To", email.ThreadID)
		m.SetHeader("References", email.ThreadID)
	}

	if email.HTMLBody != "" {
		m.SetBody("text/html", email.HTMLBody)
		if email.TextBody != "" {
			m.AddAlternative("text/plain", email.TextBody)
		}
	} else {
		m.SetBody("text/plain", email.TextBody)
	}

	d := gomail.NewDialer(sm.host, sm.port, sm.username, sm.password)
	if err := d.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send to %s failed: %w", email.To, err)
	}

	sm.logger.Printf("Sent email to %s (%s)", email.To, email.Subject)
	return messageID, nil
}
