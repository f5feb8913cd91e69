package worker

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReplyWorker(transport *fakeTransport) *AutoReplyWorker {
	arw := NewAutoReplyWorker(transport, log.New(io.Discard, "", 0))
	// No pacing in tests; drains run manually unless a test says otherwise
	arw.sendDelay = 0
	arw.coalesceDelay = time.Hour
	return arw
}

func TestAddToQueueRejectsEmptyItems(t *testing.T) {
	arw := newTestReplyWorker(&fakeTransport{})

	assert.False(t, arw.AddToQueue(nil))
	assert.False(t, arw.AddToQueue(&QueueItem{Subject: "no recipient"}))
	assert.Equal(t, 0, arw.QueueDepth())
}

func TestDrainSendsQueuedReplies(t *testing.T) {
	transport := &fakeTransport{}
	arw := newTestReplyWorker(transport)

	require.True(t, arw.AddToQueue(&QueueItem{To: "a@example.com", Subject: "Re: one", TextContent: "hi"}))
	require.True(t, arw.AddToQueue(&QueueItem{To: "b@example.com", Subject: "Re: two", TextContent: "hi"}))
	assert.Equal(t, 2, arw.QueueDepth())

	arw.Drain()

	assert.Equal(t, 2, transport.sentCount())
	assert.Equal(t, 0, arw.QueueDepth())
	assert.Equal(t, "a@example.com", transport.sent[0].To)
	assert.Equal(t, "b@example.com", transport.sent[1].To)
}

func TestDrainDropsFailedSends(t *testing.T) {
	transport := &fakeTransport{err: errors.New("smtp down")}
	arw := newTestReplyWorker(transport)

	arw.AddToQueue(&QueueItem{To: "a@example.com", Subject: "Re: one"})
	arw.Drain()

	// The item is gone for good; replies are never retried
	assert.Equal(t, 0, arw.QueueDepth())

	transport.mu.Lock()
	transport.err = nil
	transport.mu.Unlock()
	arw.Drain()
	assert.Equal(t, 0, transport.sentCount())
}

func TestDrainIsSingleFlight(t *testing.T) {
	transport := &fakeTransport{}
	arw := newTestReplyWorker(transport)
	arw.AddToQueue(&QueueItem{To: "a@example.com"})

	arw.mu.Lock()
	arw.isProcessing = true
	arw.mu.Unlock()

	arw.Drain()
	assert.Equal(t, 0, transport.sentCount())

	arw.mu.Lock()
	arw.isProcessing = false
	arw.mu.Unlock()

	arw.Drain()
	assert.Equal(t, 1, transport.sentCount())
}

func TestQueueCoalescesIntoOneDrain(t *testing.T) {
	transport := &fakeTransport{}
	arw := newTestReplyWorker(transport)
	arw.coalesceDelay = 5 * time.Millisecond

	arw.AddToQueue(&QueueItem{To: "a@example.com"})
	arw.AddToQueue(&QueueItem{To: "b@example.com"})
	arw.AddToQueue(&QueueItem{To: "c@example.com"})

	require.Eventually(t, func() bool {
		return transport.sentCount() == 3 && arw.QueueDepth() == 0
	}, time.Second, 5*time.Millisecond)
}
