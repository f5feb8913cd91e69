package worker

import (
	"log"
	"sync"
	"time"

	"serenitypools/utils"
)

// QueueItem is one pending automatic reply. Items live only in memory: a
// restart drops them, and the inbox sync regenerates the work because the
// inbound message is only marked read after successful handling.
type QueueItem struct {
	MessageID       string
	To              string
	Subject         string
	HTMLContent     string
	TextContent     string
	ThreadID        string
	LeadID          *uint
	CreatedAt       time.Time
	Processed       bool
	ProcessingError string
}

// AutoReplyWorker drains queued replies with small delays between sends. It
// single-flights its drain pass with its own flag, independent from the
// campaign scheduler, so the two loops never block each other.
type AutoReplyWorker struct {
	transport utils.Transport
	logger    *log.Logger

	coalesceDelay time.Duration
	sendDelay     time.Duration

	mu             sync.Mutex
	queue          []*QueueItem
	isProcessing   bool
	drainScheduled bool
}

func NewAutoReplyWorker(transport utils.Transport, logger *log.Logger) *AutoReplyWorker {
	return &AutoReplyWorker{
		transport:     transport,
		logger:        logger,
		coalesceDelay: 1 * time.Second,
		sendDelay:     500 * time.Millisecond,
	}
}

// AddToQueue enqueues a reply and schedules a drain. The coalescing delay lets
// a burst of inbound messages batch into a single drain pass.
func (arw *AutoReplyWorker) AddToQueue(item *QueueItem) bool {
	if item == nil || item.To == "" {
		return false
	}

	arw.mu.Lock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	arw.queue = append(arw.queue, item)
	schedule := !arw.drainScheduled
	if schedule {
		arw.drainScheduled = true
	}
	arw.mu.Unlock()

	if schedule {
		time.AfterFunc(arw.coalesceDelay, arw.Drain)
	}
	return true
}

// Drain sends every unprocessed item once. Failures are recorded on the item
// and the item is dropped anyway: the inbox sync will not regenerate work for
// a message it already handed over, so there is nothing to retry against.
func (arw *AutoReplyWorker) Drain() {
	arw.mu.Lock()
	arw.drainScheduled = false
	if arw.isProcessing {
		arw.mu.Unlock()
		arw.logger.Println("Reply drain already in progress, skipping")
		return
	}
	arw.isProcessing = true
	arw.mu.Unlock()

	defer func() {
		arw.mu.Lock()
		arw.isProcessing = false
		arw.compactLocked()
		arw.mu.Unlock()
	}()

	for {
		item := arw.nextUnprocessed()
		if item == nil {
			return
		}

		_, err := arw.transport.Send(utils.Email{
			To:       item.To,
			Subject:  item.Subject,
			HTMLBody: item.HTMLContent,
			TextBody: item.TextContent,
			ThreadID: item.ThreadID,
		})

		arw.mu.Lock()
		item.Processed = true
		if err != nil {
			item.ProcessingError = err.Error()
		}
		arw.mu.Unlock()

		if err != nil {
			arw.logger.Printf("Auto-reply to %s failed, dropping: %v", item.To, err)
		} else {
			arw.logger.Printf("Auto-reply sent to %s (%s)", item.To, item.Subject)
		}

		if arw.sendDelay > 0 {
			time.Sleep(arw.sendDelay)
		}
	}
}

// QueueDepth returns the number of unprocessed items.
func (arw *AutoReplyWorker) QueueDepth() int {
	arw.mu.Lock()
	defer arw.mu.Unlock()
	depth := 0
	for _, item := range arw.queue {
		if !item.Processed {
			depth++
		}
	}
	return depth
}

func (arw *AutoReplyWorker) nextUnprocessed() *QueueItem {
	arw.mu.Lock()
	defer arw.mu.Unlock()
	for _, item := range arw.queue {
		if !item.Processed {
			return item
		}
	}
	return nil
}

func (arw *AutoReplyWorker) compactLocked() {
	remaining := arw.queue[:0]
	for _, item := range arw.queue {
		if !item.Processed {
			remaining = append(remaining, item)
		}
	}
	arw.queue = remaining
}
