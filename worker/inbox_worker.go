package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"serenitypools/config"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// InboxWorker polls the company inbox over IMAP and feeds new messages into
// the inbound pipeline. A message is only flagged \Seen after the pipeline
// handled it, so anything dropped mid-flight is picked up on the next poll.
type InboxWorker struct {
	pipeline *InboundPipeline
	logger   *log.Logger
	interval time.Duration
}

func NewInboxWorker(pipeline *InboundPipeline, logger *log.Logger) *InboxWorker {
	return &InboxWorker{
		pipeline: pipeline,
		logger:   logger,
		interval: 5 * time.Minute,
	}
}

func (iw *InboxWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	select {
	case <-ctx.Done():
		return
	case <-time.After(30 * time.Second):
	}

	iw.logger.Println("Inbox worker started")

	ticker := time.NewTicker(iw.interval)
	defer ticker.Stop()

	iw.fetchNewMessages()
	for {
		select {
		case <-ctx.Done():
			iw.logger.Println("Inbox worker shutting down...")
			return
		case <-ticker.C:
			iw.fetchNewMessages()
		}
	}
}

func (iw *InboxWorker) fetchNewMessages() {
	cfg := config.AppConfig.IMAP
	if cfg.Host == "" {
		return
	}

	if err := iw.fetchFromIMAP(cfg); err != nil {
		iw.logger.Printf("Inbox sync failed: %v", err)
	}
}

func (iw *InboxWorker) fetchFromIMAP(cfg config.IMAPConfig) error {
	imapAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var imapClient *client.Client
	var err error
	switch strings.ToUpper(cfg.Encryption) {
	case "SSL", "TLS":
		imapClient, err = client.DialTLS(imapAddr, &tls.Config{ServerName: cfg.Host})
	case "STARTTLS":
		imapClient, err = client.Dial(imapAddr)
		if err == nil {
			err = imapClient.StartTLS(&tls.Config{ServerName: cfg.Host})
		}
	default:
		imapClient, err = client.Dial(imapAddr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	defer imapClient.Logout()

	if err := imapClient.Login(cfg.Username, cfg.Password); err != nil {
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := imapClient.Select(mailbox, false); err != nil {
		return fmt.Errorf("failed to select mailbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := imapClient.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search messages: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchItem("BODY.PEEK[]")}, messages)
	}()

	handled := new(imap.SeqSet)
	for msg := range messages {
		inbound, err := parseIMAPMessage(msg)
		if err != nil {
			iw.logger.Printf("Failed to parse message %d: %v", msg.SeqNum, err)
			continue
		}
		if err := iw.pipeline.HandleInbound(*inbound); err != nil {
			iw.logger.Printf("Failed to handle message %s: %v", inbound.MessageID, err)
			continue
		}
		handled.AddNum(msg.SeqNum)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("error during fetch: %w", err)
	}

	// Only successfully handled messages are marked read; the rest come back
	// on the next poll.
	if !handled.Empty() {
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		flags := []interface{}{imap.SeenFlag}
		if err := imapClient.Store(handled, item, flags, nil); err != nil {
			return fmt.Errorf("failed to mark messages as read: %w", err)
		}
	}

	return nil
}

func parseIMAPMessage(msg *imap.Message) (*InboundMessage, error) {
	if msg.Envelope == nil {
		return nil, fmt.Errorf("message has no envelope")
	}

	var bodyText, bodyHTML string
	if len(msg.Body) > 0 {
		// Body sections must be looked up by value; the fetch response keys the
		// map with its own pointers.
		section := &imap.BodySectionName{}
		literal := msg.GetBody(section)
		if literal == nil {
			return nil, fmt.Errorf("message body not found")
		}

		mr, err := mail.CreateReader(literal)
		if err != nil {
			return nil, fmt.Errorf("failed to create message reader: %w", err)
		}

		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			} else if err != nil {
				return nil, fmt.Errorf("failed to read next part: %w", err)
			}

			if h, ok := p.Header.(*mail.InlineHeader); ok {
				contentType, _, _ := h.ContentType()
				b, err := io.ReadAll(p.Body)
				if err != nil {
					return nil, fmt.Errorf("failed to read body: %w", err)
				}
				if strings.Contains(contentType, "text/html") {
					bodyHTML = string(b)
				} else if strings.Contains(contentType, "text/plain") {
					bodyText = string(b)
				}
			}
		}
	}

	return &InboundMessage{
		MessageID:  msg.Envelope.MessageId,
		ThreadID:   msg.Envelope.InReplyTo,
		From:       formatAddress(msg.Envelope.From),
		To:         formatAddress(msg.Envelope.To),
		Subject:    msg.Envelope.Subject,
		Body:       bodyText,
		BodyHTML:   bodyHTML,
		ReceivedAt: msg.Envelope.Date,
	}, nil
}

func formatAddress(addrs []*imap.Address) string {
	var result []string
	for _, addr := range addrs {
		result = append(result, addr.MailboxName+"@"+addr.HostName)
	}
	return strings.Join(result, ", ")
}
