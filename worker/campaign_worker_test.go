package worker

import (
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"serenitypools/campaign"
	"serenitypools/models"
	"serenitypools/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCampaignStore struct {
	mu        sync.Mutex
	instances []models.CampaignInstance
	loadErr   error
	saveErr   error
	loads     int
	sends     []models.CampaignEmail
	saved     []models.CampaignInstance

	entered chan struct{} // signalled once per load when set
	block   chan struct{} // loads wait on this when set
}

func (fs *fakeCampaignStore) ActiveInstances() ([]models.CampaignInstance, error) {
	fs.mu.Lock()
	fs.loads++
	entered, block := fs.entered, fs.block
	fs.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.loadErr != nil {
		return nil, fs.loadErr
	}
	return fs.instances, nil
}

func (fs *fakeCampaignStore) RecordSend(email *models.CampaignEmail) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.sends = append(fs.sends, *email)
	return nil
}

func (fs *fakeCampaignStore) SaveInstance(inst *models.CampaignInstance) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.saveErr != nil {
		return fs.saveErr
	}
	fs.saved = append(fs.saved, *inst)
	return nil
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []utils.Email
	err  error
}

func (ft *fakeTransport) Send(email utils.Email) (string, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.err != nil {
		return "", ft.err
	}
	ft.sent = append(ft.sent, email)
	return "<fake-id@test>", nil
}

func (ft *fakeTransport) sentCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.sent)
}

// mondayMorning is a weekday timestamp inside the send window.
func mondayMorning(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	return time.Date(2026, 3, 2, 10, 0, 0, 0, loc)
}

func newTestWorker(t *testing.T, store CampaignStore, transport utils.Transport) *CampaignWorker {
	t.Helper()
	cw := NewCampaignWorker(store, transport, campaign.StaticResolver{},
		log.New(io.Discard, "", 0), "America/Chicago")
	now := mondayMorning(t)
	cw.now = func() time.Time { return now }
	return cw
}

func TestTickSendsDueStep(t *testing.T) {
	now := mondayMorning(t)
	store := &fakeCampaignStore{
		instances: []models.CampaignInstance{{
			LeadID:       7,
			CampaignType: campaign.TypeNewLead,
			Status:       models.CampaignStatusActive,
			EnrolledAt:   now.Add(-time.Hour),
			Lead:         models.Lead{Email: "dana@example.com", FirstName: "Dana"},
		}},
	}
	transport := &fakeTransport{}
	cw := newTestWorker(t, store, transport)

	cw.Tick()

	require.Equal(t, 1, transport.sentCount())
	assert.Equal(t, "dana@example.com", transport.sent[0].To)
	assert.Contains(t, transport.sent[0].Subject, "Dana")

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, 1, saved.CurrentStepIndex)
	require.NotNil(t, saved.LastSentAt)
	assert.True(t, saved.LastSentAt.Equal(now))
	require.NotNil(t, saved.NextSendAt)
	assert.True(t, saved.NextSendAt.After(now))

	require.Len(t, store.sends, 1)
	assert.Equal(t, "welcome", store.sends[0].StepID)

	status := cw.Status()
	assert.Equal(t, int64(1), status.TotalSent)
	assert.Equal(t, 0, status.ErrorCount)
}

func TestTickCompletesFinalStep(t *testing.T) {
	now := mondayMorning(t)
	due := now.Add(-time.Hour)
	store := &fakeCampaignStore{
		instances: []models.CampaignInstance{{
			LeadID:           3,
			CampaignType:     campaign.TypeReactivation,
			Status:           models.CampaignStatusActive,
			CurrentStepIndex: 2, // last of three steps
			EnrolledAt:       now.AddDate(0, 0, -10),
			NextSendAt:       &due,
			Lead:             models.Lead{Email: "old@example.com"},
		}},
	}
	transport := &fakeTransport{}
	cw := newTestWorker(t, store, transport)

	cw.Tick()

	require.Len(t, store.saved, 1)
	saved := store.saved[0]
	assert.Equal(t, models.CampaignStatusCompleted, saved.Status)
	require.NotNil(t, saved.CompletedAt)
	assert.Nil(t, saved.NextSendAt)
}

func TestSchedulerRunsCampaignToCompletion(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	enrolled := time.Date(2026, 3, 2, 9, 0, 0, 0, loc) // Monday

	store := &fakeCampaignStore{
		instances: []models.CampaignInstance{{
			LeadID:       9,
			CampaignType: campaign.TypeReactivation,
			Status:       models.CampaignStatusActive,
			EnrolledAt:   enrolled,
			Timezone:     "America/Chicago",
			Lead:         models.Lead{Email: "old@example.com", FirstName: "Pat"},
		}},
	}
	transport := &fakeTransport{}
	cw := newTestWorker(t, store, transport)

	// Walk the clock past each step's send time: day 0, day 4, day 10
	ticks := []time.Time{
		time.Date(2026, 3, 2, 10, 0, 0, 0, loc),
		time.Date(2026, 3, 6, 11, 0, 0, 0, loc),
		time.Date(2026, 3, 12, 11, 0, 0, 0, loc),
	}
	for _, at := range ticks {
		now := at
		cw.now = func() time.Time { return now }
		cw.Tick()
	}

	require.Equal(t, 3, transport.sentCount())
	assert.Equal(t, models.CampaignStatusCompleted, store.instances[0].Status)
	assert.NotNil(t, store.instances[0].CompletedAt)
	assert.Nil(t, store.instances[0].NextSendAt)
	assert.Equal(t, int64(3), cw.Status().TotalSent)

	// A further tick after completion sends nothing
	cw.Tick()
	assert.Equal(t, 3, transport.sentCount())
}

func TestTickOutsideBusinessHoursDoesNothing(t *testing.T) {
	store := &fakeCampaignStore{}
	cw := newTestWorker(t, store, &fakeTransport{})

	loc, _ := time.LoadLocation("America/Chicago")
	saturday := time.Date(2026, 3, 7, 10, 0, 0, 0, loc)
	cw.now = func() time.Time { return saturday }

	cw.Tick()

	assert.Equal(t, 0, store.loads)
}

func TestTickRespectsDuplicateSendGuard(t *testing.T) {
	now := mondayMorning(t)
	due := now.Add(-time.Hour)
	justSent := now.Add(-10 * time.Minute)
	store := &fakeCampaignStore{
		instances: []models.CampaignInstance{{
			CampaignType:     campaign.TypeNewLead,
			Status:           models.CampaignStatusActive,
			CurrentStepIndex: 1,
			EnrolledAt:       now.AddDate(0, 0, -3),
			NextSendAt:       &due,
			LastSentAt:       &justSent,
			Lead:             models.Lead{Email: "dana@example.com"},
		}},
	}
	transport := &fakeTransport{}
	cw := newTestWorker(t, store, transport)

	cw.Tick()

	assert.Equal(t, 0, transport.sentCount())
	assert.Equal(t, 0, cw.Status().ErrorCount)
}

func TestTransportFailureLeavesInstanceForRetry(t *testing.T) {
	now := mondayMorning(t)
	store := &fakeCampaignStore{
		instances: []models.CampaignInstance{{
			CampaignType: campaign.TypeNewLead,
			Status:       models.CampaignStatusActive,
			EnrolledAt:   now.Add(-time.Hour),
			Lead:         models.Lead{Email: "dana@example.com"},
		}},
	}
	cw := newTestWorker(t, store, &fakeTransport{err: errors.New("smtp down")})

	cw.Tick()

	// No state advanced, so the next tick retries the same step
	assert.Empty(t, store.saved)
	assert.Empty(t, store.sends)

	// Every due send failing counts as a loop-level error
	assert.Equal(t, 1, cw.Status().ErrorCount)
}

func TestCircuitBreakerDisablesScheduler(t *testing.T) {
	store := &fakeCampaignStore{loadErr: errors.New("db gone")}
	cw := newTestWorker(t, store, &fakeTransport{})

	for i := 0; i < loopErrorMax; i++ {
		cw.Tick()
	}
	status := cw.Status()
	assert.False(t, status.Disabled)
	assert.Equal(t, loopErrorMax, status.ErrorCount)

	// One more failure trips the breaker
	cw.Tick()
	status = cw.Status()
	assert.True(t, status.Disabled)
	assert.Equal(t, loopErrorMax+1, status.ErrorCount)

	// Disabled scheduler ignores further ticks entirely
	loadsBefore := store.loads
	cw.Tick()
	assert.Equal(t, loadsBefore, store.loads)

	// Operator restart clears the breaker
	cw.Restart()
	status = cw.Status()
	assert.False(t, status.Disabled)
	assert.Equal(t, 0, status.ErrorCount)

	store.mu.Lock()
	store.loadErr = nil
	store.mu.Unlock()
	cw.Tick()
	assert.Equal(t, loadsBefore+1, store.loads)
}

func TestTickSkipsWhenPreviousTickStillRunning(t *testing.T) {
	store := &fakeCampaignStore{
		entered: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	cw := newTestWorker(t, store, &fakeTransport{})

	done := make(chan struct{})
	go func() {
		cw.Tick()
		close(done)
	}()

	// Wait for the first tick to be mid-load, then tick again
	<-store.entered
	cw.Tick()

	close(store.block)
	<-done

	assert.Equal(t, 1, store.loads)
}

func TestStopSuppressesTicks(t *testing.T) {
	store := &fakeCampaignStore{}
	cw := newTestWorker(t, store, &fakeTransport{})

	cw.Stop()
	cw.Tick()
	assert.Equal(t, 0, store.loads)

	cw.Restart()
	cw.Tick()
	assert.Equal(t, 1, store.loads)
}
