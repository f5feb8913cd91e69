package worker

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fetchedMessage builds an imap.Message the way a FETCH response does: the
// body map is keyed by a pointer the parser allocated, not one the caller
// holds.
func fetchedMessage(t *testing.T, raw string) *imap.Message {
	t.Helper()

	section, err := imap.ParseBodySectionName("BODY[]")
	require.NoError(t, err)

	crlf := strings.ReplaceAll(raw, "\n", "\r\n")
	return &imap.Message{
		SeqNum: 1,
		Envelope: &imap.Envelope{
			MessageId: "<m1@example.com>",
			InReplyTo: "<t1@example.com>",
			Subject:   "Pool question",
			Date:      time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC),
			From:      []*imap.Address{{MailboxName: "dana", HostName: "example.com"}},
			To:        []*imap.Address{{MailboxName: "hello", HostName: "serenitycustompools.com"}},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(crlf),
		},
	}
}

func TestParseIMAPMessagePlainText(t *testing.T) {
	raw := `From: Dana <dana@example.com>
To: hello@serenitycustompools.com
Subject: Pool question
Content-Type: text/plain; charset=utf-8

When can someone come out?
`
	msg, err := parseIMAPMessage(fetchedMessage(t, raw))
	require.NoError(t, err)

	assert.Equal(t, "<m1@example.com>", msg.MessageID)
	assert.Equal(t, "<t1@example.com>", msg.ThreadID)
	assert.Equal(t, "dana@example.com", msg.From)
	assert.Equal(t, "Pool question", msg.Subject)
	assert.Contains(t, msg.Body, "When can someone come out?")
	assert.Empty(t, msg.BodyHTML)
}

func TestParseIMAPMessageMultipart(t *testing.T) {
	raw := `From: Dana <dana@example.com>
To: hello@serenitycustompools.com
Subject: Re: design
Content-Type: multipart/alternative; boundary=b1

--b1
Content-Type: text/plain; charset=utf-8

plain words
--b1
Content-Type: text/html; charset=utf-8

<p>html words</p>
--b1--
`
	msg, err := parseIMAPMessage(fetchedMessage(t, raw))
	require.NoError(t, err)

	assert.Contains(t, msg.Body, "plain words")
	assert.Contains(t, msg.BodyHTML, "<p>html words</p>")
}

func TestParseIMAPMessageWithoutEnvelope(t *testing.T) {
	_, err := parseIMAPMessage(&imap.Message{SeqNum: 1})
	assert.Error(t, err)
}
