package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"endflow/internal/models"
	"endflow/internal/visitor"
)

// mockDestination is a test double implementing the Destination interface.
type mockDestination struct {
	name      string
	category  models.ConsentCategory
	available bool
	err       error
	panics    bool

	mu     sync.Mutex
	events []models.Event
}

func (m *mockDestination) Name() string                     { return m.name }
func (m *mockDestination) Category() models.ConsentCategory { return m.category }
func (m *mockDestination) Available() bool                  { return m.available }

func (m *mockDestination) Send(_ context.Context, e models.Event) error {
	m.mu.Lock()
	m.events = append(m.events, e)
	m.mu.Unlock()
	if m.panics {
		panic("relay exploded")
	}
	return m.err
}

func (m *mockDestination) received() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, len(m.events))
	copy(out, m.events)
	return out
}

// fakeConsent returns fixed preferences.
type fakeConsent struct {
	prefs   models.ConsentPreferences
	decided bool
	err     error
}

func (f *fakeConsent) Current(context.Context, string) (models.ConsentPreferences, bool, error) {
	return f.prefs, f.decided, f.err
}

// fakeAttribution returns fixed parameters.
type fakeAttribution struct {
	params models.AttributionParams
}

func (f fakeAttribution) Stored(context.Context, string) (models.AttributionParams, bool, error) {
	return f.params, !f.params.IsEmpty(), nil
}

func newMockRegistry(dests ...*mockDestination) *Registry {
	r := &Registry{}
	for _, d := range dests {
		r.Register(d)
	}
	return r
}

func newTestDispatcher(t *testing.T, r *Registry, c ConsentReader, opts ...Option) *Dispatcher {
	t.Helper()
	d := NewDispatcher(r, c, fakeAttribution{}, opts...)
	t.Cleanup(d.Close)
	return d
}

func TestDispatchRespectsConsentCategory(t *testing.T) {
	analytics := &mockDestination{name: "ga4", category: models.ConsentAnalytics, available: true}
	marketing := &mockDestination{name: "meta", category: models.ConsentMarketing, available: true}
	consent := &fakeConsent{prefs: models.ConsentPreferences{Necessary: true, Analytics: true}, decided: true}

	d := newTestDispatcher(t, newMockRegistry(analytics, marketing), consent)
	out := d.Dispatch(context.Background(), SignupCompleted(100))
	d.Wait()

	assert.Equal(t, StateDispatched, out.State)
	assert.Equal(t, []string{"ga4"}, out.Destinations)
	require.Len(t, analytics.received(), 1)
	assert.Equal(t, ActionSignupCompleted, analytics.received()[0].Action)
	assert.Empty(t, marketing.received())
}

func TestDispatchSkipsUnavailable(t *testing.T) {
	loaded := &mockDestination{name: "a", category: models.ConsentMarketing, available: true}
	missing := &mockDestination{name: "b", category: models.ConsentMarketing, available: false}
	consent := &fakeConsent{prefs: models.AllConsent(), decided: true}

	d := newTestDispatcher(t, newMockRegistry(loaded, missing), consent)
	out := d.Dispatch(context.Background(), DemoRequested())
	d.Wait()

	assert.Equal(t, []string{"a"}, out.Destinations)
	assert.Empty(t, missing.received())
}

func TestDispatchSuppressedWhenNothingPermitted(t *testing.T) {
	dest := &mockDestination{name: "a", category: models.ConsentMarketing, available: true}
	consent := &fakeConsent{prefs: models.NecessaryOnly(), decided: true}

	d := newTestDispatcher(t, newMockRegistry(dest), consent)
	out := d.Dispatch(context.Background(), PricingPageViewed())
	d.Wait()

	assert.Equal(t, StateSuppressed, out.State)
	assert.Empty(t, out.Destinations)
	assert.Empty(t, dest.received())
}

func TestDispatchIsolatesFailingRelays(t *testing.T) {
	panicking := &mockDestination{name: "boom", category: models.ConsentMarketing, available: true, panics: true}
	failing := &mockDestination{name: "fail", category: models.ConsentMarketing, available: true, err: errors.New("503")}
	first := &mockDestination{name: "one", category: models.ConsentAnalytics, available: true}
	second := &mockDestination{name: "two", category: models.ConsentMarketing, available: true}
	consent := &fakeConsent{prefs: models.AllConsent(), decided: true}

	d := newTestDispatcher(t, newMockRegistry(panicking, failing, first, second), consent)
	out := d.Dispatch(context.Background(), ExportCompleted(ExportCSV))
	d.Wait()

	assert.Equal(t, StateDispatched, out.State)
	assert.Len(t, out.Destinations, 4)
	assert.Len(t, first.received(), 1)
	assert.Len(t, second.received(), 1)
}

func TestDispatchMergesAttribution(t *testing.T) {
	dest := &mockDestination{name: "a", category: models.ConsentAnalytics, available: true}
	consent := &fakeConsent{prefs: models.AllConsent(), decided: true}
	attr := fakeAttribution{params: models.AttributionParams{Source: "linkedin", Campaign: "launch"}}

	d := NewDispatcher(newMockRegistry(dest), consent, attr)
	t.Cleanup(d.Close)

	e := FirstSearchPerformed("vp sales fintech")
	e.VisitorID = "v1"
	e.Properties["utm_campaign"] = "override"

	d.Dispatch(context.Background(), e)
	d.Wait()

	got := dest.received()
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{
		"utm_source":   "linkedin",
		"utm_campaign": "override",
		"search_query": "vp sales fintech",
	}, got[0].Properties)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestDispatchQueuesUntilConsent(t *testing.T) {
	analytics := &mockDestination{name: "ga4", category: models.ConsentAnalytics, available: true}
	marketing := &mockDestination{name: "meta", category: models.ConsentMarketing, available: true}
	consent := &fakeConsent{decided: false, prefs: models.NecessaryOnly()}

	d := newTestDispatcher(t, newMockRegistry(analytics, marketing), consent)

	for _, e := range []models.Event{PageView("/pricing"), PricingPageViewed()} {
		e.VisitorID = "v1"
		out := d.Dispatch(context.Background(), e)
		assert.Equal(t, StateQueued, out.State)
	}
	d.Wait()
	assert.Empty(t, analytics.received())
	assert.Equal(t, 2, d.Pending("v1"))

	d.OnConsent(context.Background(), "v1", models.ConsentPreferences{Necessary: true, Analytics: true})
	d.Wait()

	got := analytics.received()
	require.Len(t, got, 2)
	assert.Equal(t, ActionPageView, got[0].Action)
	assert.Equal(t, ActionPricingPageViewed, got[1].Action)
	assert.Empty(t, marketing.received())
	assert.Zero(t, d.Pending("v1"))
}

func TestDispatchZeroQueueLimit(t *testing.T) {
	dest := &mockDestination{name: "a", category: models.ConsentAnalytics, available: true}
	d := newTestDispatcher(t, newMockRegistry(dest), &fakeConsent{}, WithQueue(0, time.Hour))

	for _, e := range []models.Event{SignupStarted(), DemoRequested()} {
		e.VisitorID = "v1"
		assert.Equal(t, StateQueued, d.Dispatch(context.Background(), e).State)
	}
	assert.Equal(t, 1, d.Pending("v1"))
}

func TestDispatchDeduplicates(t *testing.T) {
	dest := &mockDestination{name: "a", category: models.ConsentAnalytics, available: true}
	consent := &fakeConsent{prefs: models.AllConsent(), decided: true}

	d := newTestDispatcher(t, newMockRegistry(dest), consent, WithDeduper(visitor.NewMemory()))

	e := DemoCompleted()
	e.ID = "evt-1"
	first := d.Dispatch(context.Background(), e)
	second := d.Dispatch(context.Background(), e)
	d.Wait()

	assert.Equal(t, StateDispatched, first.State)
	assert.Equal(t, StateDuplicate, second.State)
	assert.Len(t, dest.received(), 1)
}

func TestDispatchConsentErrorHoldsEvent(t *testing.T) {
	dest := &mockDestination{name: "a", category: models.ConsentAnalytics, available: true}
	consent := &fakeConsent{err: errors.New("valkey down")}

	d := newTestDispatcher(t, newMockRegistry(dest), consent)
	e := SignupStarted()
	e.VisitorID = "v1"
	out := d.Dispatch(context.Background(), e)
	d.Wait()

	assert.Equal(t, StateQueued, out.State)
	assert.Empty(t, dest.received())
	assert.Equal(t, 1, d.Pending("v1"))

	// The held event goes out once the visitor decides.
	d.OnConsent(context.Background(), "v1", models.AllConsent())
	d.Wait()
	require.Len(t, dest.received(), 1)
	assert.Equal(t, ActionSignupStarted, dest.received()[0].Action)
}

func TestDispatchDoesNotWaitForSlowRelay(t *testing.T) {
	release := make(chan struct{})
	slow := &blockingDestination{release: release}
	consent := &fakeConsent{prefs: models.AllConsent(), decided: true}

	r := &Registry{}
	r.Register(slow)
	d := NewDispatcher(r, consent, nil, WithRelayTimeout(time.Second))

	done := make(chan Outcome, 1)
	go func() { done <- d.Dispatch(context.Background(), DemoRequested()) }()

	select {
	case out := <-done:
		assert.Equal(t, StateDispatched, out.State)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Dispatch blocked on a slow destination")
	}

	close(release)
	d.Close()
}

// blockingDestination blocks in Send until released or timed out.
type blockingDestination struct {
	release chan struct{}
}

func (b *blockingDestination) Name() string                     { return "slow" }
func (b *blockingDestination) Category() models.ConsentCategory { return models.ConsentAnalytics }
func (b *blockingDestination) Available() bool                  { return true }

func (b *blockingDestination) Send(ctx context.Context, _ models.Event) error {
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
