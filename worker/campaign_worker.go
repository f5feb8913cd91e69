package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"serenitypools/campaign"
	"serenitypools/models"
	"serenitypools/utils"

	sentry "github.com/getsentry/sentry-go"
)

const (
	startupGrace = 5 * time.Minute
	tickInterval = 1 * time.Hour
	loopErrorMax = 5 // consecutive loop-level errors before the scheduler disables itself
)

// CampaignWorker is the drip scheduler. One instance runs per process; it owns
// its own re-entry flag, error counter and disabled state, so there is no
// hidden global scheduler state to reach into.
type CampaignWorker struct {
	store     CampaignStore
	transport utils.Transport
	resolver  campaign.ContentResolver
	logger    *log.Logger
	timezone  string
	now       func() time.Time

	mu           sync.Mutex
	isProcessing bool
	disabled     bool
	errorCount   int
	lastTickAt   time.Time
	totalSent    int64
}

// SchedulerStatus is a point-in-time snapshot for the admin API.
type SchedulerStatus struct {
	Disabled   bool      `json:"disabled"`
	Processing bool      `json:"processing"`
	ErrorCount int       `json:"error_count"`
	LastTickAt time.Time `json:"last_tick_at"`
	TotalSent  int64     `json:"total_sent"`
}

func NewCampaignWorker(store CampaignStore, transport utils.Transport, resolver campaign.ContentResolver, logger *log.Logger, timezone string) *CampaignWorker {
	if timezone == "" {
		timezone = campaign.DefaultTimezone
	}
	return &CampaignWorker{
		store:     store,
		transport: transport,
		resolver:  resolver,
		logger:    logger,
		timezone:  timezone,
		now:       time.Now,
	}
}

// Start runs the tick loop until ctx is cancelled. The first tick waits out a
// grace period so a restart doesn't immediately re-fire day-0 steps for every
// in-flight lead.
func (cw *CampaignWorker) Start(ctx context.Context) {
	cw.logger.Printf("Campaign scheduler starting, first tick in %v", startupGrace)

	select {
	case <-ctx.Done():
		return
	case <-time.After(startupGrace):
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	cw.Tick()
	for {
		select {
		case <-ctx.Done():
			cw.logger.Println("Campaign scheduler shutting down...")
			return
		case <-ticker.C:
			cw.Tick()
		}
	}
}

// Tick runs one due-instance scan. Re-entry, disabled state and the business
// hours window are all checked before any work happens.
func (cw *CampaignWorker) Tick() {
	cw.mu.Lock()
	if cw.disabled {
		cw.mu.Unlock()
		return
	}
	if cw.isProcessing {
		cw.mu.Unlock()
		cw.logger.Println("Previous tick still running, skipping")
		return
	}
	cw.isProcessing = true
	cw.mu.Unlock()

	defer func() {
		cw.mu.Lock()
		cw.isProcessing = false
		cw.mu.Unlock()
	}()

	now := cw.now()
	if !campaign.WithinBusinessHours(now, cw.timezone) {
		return
	}

	cw.mu.Lock()
	cw.lastTickAt = now
	cw.mu.Unlock()

	if err := cw.processDueInstances(now); err != nil {
		cw.recordLoopError(err)
		return
	}

	cw.mu.Lock()
	cw.errorCount = 0
	cw.mu.Unlock()
}

// Stop suppresses future ticks. In-flight sends are not cancelled.
func (cw *CampaignWorker) Stop() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.disabled = true
	cw.logger.Println("Campaign scheduler stopped by operator")
}

// Restart clears the disabled state and error counter after an operator
// stop or a circuit-breaker trip.
func (cw *CampaignWorker) Restart() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.disabled = false
	cw.errorCount = 0
	cw.logger.Println("Campaign scheduler restarted")
}

func (cw *CampaignWorker) Status() SchedulerStatus {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return SchedulerStatus{
		Disabled:   cw.disabled,
		Processing: cw.isProcessing,
		ErrorCount: cw.errorCount,
		LastTickAt: cw.lastTickAt,
		TotalSent:  cw.totalSent,
	}
}

func (cw *CampaignWorker) processDueInstances(now time.Time) error {
	instances, err := cw.store.ActiveInstances()
	if err != nil {
		return fmt.Errorf("failed to load active campaigns: %w", err)
	}

	attempted, failed := 0, 0
	for i := range instances {
		inst := &instances[i]

		def := campaign.DefinitionByType(inst.CampaignType)
		if def == nil {
			cw.logger.Printf("Unknown campaign type %q on instance %d, skipping", inst.CampaignType, inst.ID)
			continue
		}
		if !campaign.ShouldSendNextEmail(inst, len(def.Steps), now) {
			continue
		}

		attempted++
		if err := cw.sendStep(inst, def, now); err != nil {
			failed++
			cw.logger.Printf("Failed to process instance %d (lead %d): %v", inst.ID, inst.LeadID, err)
		}
	}

	// Individual failures are retried naturally on the next tick. Everything
	// failing at once means the transport itself is down, which is a
	// loop-level failure for the circuit breaker.
	if attempted > 0 && failed == attempted {
		return fmt.Errorf("all %d due sends failed, transport unavailable", attempted)
	}
	return nil
}

func (cw *CampaignWorker) sendStep(inst *models.CampaignInstance, def *campaign.Definition, now time.Time) error {
	step := def.Steps[inst.CurrentStepIndex]
	subject, body := cw.resolver.Resolve(step, &inst.Lead)

	providerID, err := cw.transport.Send(utils.Email{
		To:       inst.Lead.Email,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		// Instance untouched: nextSendAt stays in the past, so the next tick
		// retries without any bookkeeping.
		return err
	}

	if err := cw.store.RecordSend(&models.CampaignEmail{
		CampaignInstanceID: inst.ID,
		LeadID:             inst.LeadID,
		StepID:             step.ID,
		Subject:            subject,
		Body:               body,
		SentAt:             now,
		ProviderMessageID:  providerID,
	}); err != nil {
		cw.logger.Printf("Failed to record send history for instance %d: %v", inst.ID, err)
	}

	inst.LastSentAt = &now
	next := inst.CurrentStepIndex + 1
	if next < len(def.Steps) {
		nextAt := campaign.NextSendTime(def.Steps[next].DayOffset, inst.EnrolledAt, inst.Timezone)
		inst.CurrentStepIndex = next
		inst.NextSendAt = &nextAt
	} else {
		inst.Status = models.CampaignStatusCompleted
		inst.CompletedAt = &now
		inst.NextSendAt = nil
	}

	if err := cw.store.SaveInstance(inst); err != nil {
		return fmt.Errorf("failed to save instance state: %w", err)
	}

	cw.mu.Lock()
	cw.totalSent++
	cw.mu.Unlock()

	cw.logger.Printf("Sent step %s of %s to lead %d", step.ID, def.Type, inst.LeadID)
	return nil
}

func (cw *CampaignWorker) recordLoopError(err error) {
	sentry.CaptureException(err)

	cw.mu.Lock()
	cw.errorCount++
	count := cw.errorCount
	trip := count > loopErrorMax && !cw.disabled
	if trip {
		cw.disabled = true
	}
	cw.mu.Unlock()

	cw.logger.Printf("Scheduler loop error (%d consecutive): %v", count, err)
	if trip {
		cw.logger.Printf("Campaign scheduler disabled after %d consecutive failures, operator restart required", count)
		sentry.CaptureMessage(fmt.Sprintf("campaign scheduler disabled after %d consecutive failures", count))
	}
}
