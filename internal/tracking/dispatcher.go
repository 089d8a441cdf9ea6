// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"endflow/internal/models"
)

const (
	// DefaultRelayTimeout bounds a single destination call.
	DefaultRelayTimeout = 10 * time.Second

	// dedupeWindow is how long an event id is remembered.
	dedupeWindow = 24 * time.Hour
)

// State is the terminal state of a dispatched event.
type State string

const (
	// StateSuppressed means no destination was both available and permitted.
	StateSuppressed State = "suppressed"
	// StateDispatched means at least one relay was started.
	StateDispatched State = "dispatched"
	// StateQueued means the visitor has not decided on consent yet; the
	// event is held until they do.
	StateQueued State = "queued"
	// StateDuplicate means an event with the same id was already handled.
	StateDuplicate State = "duplicate"
)

// Outcome reports what Dispatch did with an event.
type Outcome struct {
	EventID      string   `json:"event_id"`
	State        State    `json:"state"`
	Destinations []string `json:"destinations"`
}

// ConsentReader returns a visitor's consent and whether they decided.
// *consent.Manager satisfies it.
type ConsentReader interface {
	Current(ctx context.Context, visitorID string) (models.ConsentPreferences, bool, error)
}

// AttributionReader returns a visitor's captured campaign parameters.
// *attribution.Capturer satisfies it.
type AttributionReader interface {
	Stored(ctx context.Context, visitorID string) (models.AttributionParams, bool, error)
}

// Deduper marks event ids as seen. visitor.KV satisfies it.
type Deduper interface {
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Dispatcher fans events out to destinations. Relays run in their own
// goroutines; Dispatch returns without waiting for them.
type Dispatcher struct {
	registry    *Registry
	consent     ConsentReader
	attribution AttributionReader
	dedupe      Deduper
	queue       *pendingQueue
	timeout     time.Duration
	now         func() time.Time

	wg sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithDeduper enables duplicate suppression by event id.
func WithDeduper(d Deduper) Option {
	return func(disp *Dispatcher) { disp.dedupe = d }
}

// WithRelayTimeout overrides DefaultRelayTimeout.
func WithRelayTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) { disp.timeout = d }
}

// WithQueue overrides the pending queue size and retention.
func WithQueue(limit int, retention time.Duration) Option {
	return func(disp *Dispatcher) {
		disp.queue.Stop()
		disp.queue = newPendingQueue(limit, retention)
	}
}

// NewDispatcher creates a dispatcher over the registry's destinations.
func NewDispatcher(registry *Registry, consent ConsentReader, attribution AttributionReader, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		consent:     consent,
		attribution: attribution,
		queue:       newPendingQueue(DefaultQueueLimit, DefaultQueueRetention),
		timeout:     DefaultRelayTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs an event through the consent check and starts a relay for
// every destination that is permitted and available. Destination failures
// never surface here; they are logged per destination.
func (d *Dispatcher) Dispatch(ctx context.Context, e models.Event) Outcome {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = d.now().UTC()
	}
	out := Outcome{EventID: e.ID, Destinations: []string{}}

	if d.dedupe != nil {
		first, err := d.dedupe.SetNX(ctx, "event:"+e.ID, dedupeWindow)
		if err != nil {
			slog.Warn("event dedupe unavailable", "event_id", e.ID, "error", err)
		} else if !first {
			slog.Debug("duplicate event ignored", "event_id", e.ID, "action", e.Action)
			out.State = StateDuplicate
			return out
		}
	}

	e.Properties = d.mergeAttribution(ctx, e)

	prefs, decided, err := d.consent.Current(ctx, e.VisitorID)
	if err != nil {
		// An unreadable decision counts as undecided: nothing is relayed and
		// the event waits for the visitor's next decision.
		slog.Warn("consent lookup failed", "visitor", e.VisitorID, "error", err)
		decided = false
	}

	if !decided {
		if d.queue.push(e.VisitorID, e) {
			slog.Debug("pending queue full, oldest event dropped", "visitor", e.VisitorID)
		}
		out.State = StateQueued
		return out
	}

	out.Destinations = d.fanOut(e, prefs)
	out.State = StateSuppressed
	if len(out.Destinations) > 0 {
		out.State = StateDispatched
	}
	return out
}

// OnConsent releases the visitor's pending events to the destinations the
// new preferences permit. It matches consent.Listener.
func (d *Dispatcher) OnConsent(_ context.Context, visitorID string, prefs models.ConsentPreferences) {
	events := d.queue.drain(visitorID)
	if len(events) == 0 {
		return
	}

	sent := 0
	for _, e := range events {
		if len(d.fanOut(e, prefs)) > 0 {
			sent++
		}
	}
	slog.Info("pending events flushed", "visitor", visitorID, "events", len(events), "dispatched", sent)
}

// Pending returns the number of events held for an undecided visitor.
func (d *Dispatcher) Pending(visitorID string) int {
	return d.queue.size(visitorID)
}

// Wait blocks until every started relay has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops the queue's cleanup goroutine and waits for in-flight relays.
func (d *Dispatcher) Close() {
	d.queue.Stop()
	d.wg.Wait()
}

// mergeAttribution returns the visitor's attribution fields overlaid with
// the event's own properties. The event wins on key collisions.
func (d *Dispatcher) mergeAttribution(ctx context.Context, e models.Event) map[string]any {
	props := make(map[string]any, len(e.Properties)+5)
	if d.attribution != nil && e.VisitorID != "" {
		params, ok, err := d.attribution.Stored(ctx, e.VisitorID)
		if err != nil {
			slog.Warn("attribution lookup failed", "visitor", e.VisitorID, "error", err)
		} else if ok {
			for k, v := range params.Properties() {
				props[k] = v
			}
		}
	}
	for k, v := range e.Properties {
		props[k] = v
	}
	return props
}

// fanOut starts a relay per permitted, available destination and returns
// their names. Skips are expected conditions and only logged at debug.
func (d *Dispatcher) fanOut(e models.Event, prefs models.ConsentPreferences) []string {
	names := []string{}
	for _, dest := range d.registry.Destinations() {
		if !prefs.Allows(dest.Category()) {
			slog.Debug("destination not permitted", "destination", dest.Name(), "category", dest.Category())
			continue
		}
		if !dest.Available() {
			slog.Debug("destination unavailable", "destination", dest.Name())
			continue
		}
		names = append(names, dest.Name())
		d.relay(dest, e)
	}
	return names
}

// relay sends e to one destination in its own goroutine. The call gets a
// fresh timeout so it outlives the request that triggered it. Errors and
// panics are logged with the destination name and go no further.
func (d *Dispatcher) relay(dest Destination, e models.Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("destination relay panic",
					"destination", dest.Name(),
					"action", e.Action,
					"panic", fmt.Sprint(rec),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := dest.Send(ctx, e); err != nil {
			slog.Warn("destination relay failed",
				"destination", dest.Name(),
				"action", e.Action,
				"event_id", e.ID,
				"error", err,
			)
			return
		}
		slog.Debug("event relayed", "destination", dest.Name(), "action", e.Action)
	}()
}
