// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tracking relays behavioral events to third-party analytics and
// advertising destinations (GA4, Meta, LinkedIn, X, Reddit, Product Hunt,
// RB2B, HubSpot). Each destination implements the Destination interface;
// the Dispatcher fans an event out to every destination that is available
// and permitted by the visitor's consent.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"endflow/internal/models"
)

// Destination names.
const (
	GA4         = "ga4"
	Meta        = "meta"
	LinkedIn    = "linkedin"
	Twitter     = "twitter"
	Reddit      = "reddit"
	ProductHunt = "producthunt"
	RB2B        = "rb2b"
	HubSpot     = "hubspot"
)

// Destination defines the interface every analytics destination implements.
type Destination interface {
	// Name returns the destination identifier (e.g., "ga4", "meta").
	Name() string

	// Category returns the consent category that must be granted before
	// the destination may receive events.
	Category() models.ConsentCategory

	// Available reports whether the destination can be used at all,
	// typically whether its credentials are configured.
	Available() bool

	// Send relays one event. Implementations must not modify e.
	Send(ctx context.Context, e models.Event) error
}

// DestinationConfig holds the account identifier and credentials of a
// single destination.
type DestinationConfig struct {
	ID       string // pixel, measurement, partner or portal id
	Secret   string // API secret or access token
	Endpoint string // collector URL for destinations without a public API
	BaseURL  string // overrides the public API host, e.g. for tests
}

// Registry holds the destinations in a fixed order.
// All methods are safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	destinations []Destination
}

// NewRegistry creates a registry with all built-in destinations. A
// destination whose config is missing or incomplete is still registered
// but reports itself unavailable.
func NewRegistry(configs map[string]DestinationConfig) *Registry {
	r := &Registry{}
	r.Register(newGA4(configs[GA4]))
	r.Register(newHubSpot(configs[HubSpot]))
	r.Register(newMeta(configs[Meta]))
	r.Register(newLinkedIn(configs[LinkedIn]))
	r.Register(newTwitter(configs[Twitter]))
	r.Register(newReddit(configs[Reddit]))
	r.Register(newProductHunt(configs[ProductHunt]))
	r.Register(newRB2B(configs[RB2B]))
	return r
}

// Register adds a destination or replaces one with the same name,
// keeping its position.
func (r *Registry) Register(d Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.destinations {
		if existing.Name() == d.Name() {
			r.destinations[i] = d
			return
		}
	}
	r.destinations = append(r.destinations, d)
}

// Destinations returns a snapshot of the registered destinations.
func (r *Registry) Destinations() []Destination {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Destination, len(r.destinations))
	copy(out, r.destinations)
	return out
}

// Available returns the names of destinations that are usable.
func (r *Registry) Available() []string {
	var names []string
	for _, d := range r.Destinations() {
		if d.Available() {
			names = append(names, d.Name())
		}
	}
	return names
}

// relay is the shared HTTP implementation behind the built-in
// destinations. Each destination supplies a request builder that turns an
// event into a URL, headers and a JSON body.
type relay struct {
	name      string
	category  models.ConsentCategory
	available bool
	build     func(e models.Event) (string, http.Header, any)
	client    *http.Client
}

func newRelay(name string, category models.ConsentCategory, available bool,
	build func(models.Event) (string, http.Header, any)) *relay {
	return &relay{
		name:      name,
		category:  category,
		available: available,
		build:     build,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *relay) Name() string                     { return r.name }
func (r *relay) Category() models.ConsentCategory { return r.category }
func (r *relay) Available() bool                  { return r.available }

// Send POSTs the built payload and treats any non-2xx status as failure.
func (r *relay) Send(ctx context.Context, e models.Event) error {
	url, header, body := r.build(e)

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s marshal: %w", r.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s request: %w", r.name, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s http: %w", r.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s API error (status %d): %s", r.name, resp.StatusCode, string(respBody))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// bearer returns an Authorization header for token.
func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

// baseURL returns override when set, else def.
func baseURL(override, def string) string {
	if override != "" {
		return override
	}
	return def
}

// customData flattens an event into the category/label/value fields used by
// the browser tags, with event properties (attribution included) on top.
func customData(e models.Event) map[string]any {
	data := make(map[string]any, len(e.Properties)+3)
	data["category"] = string(e.Category)
	if e.Label != "" {
		data["label"] = e.Label
	}
	if e.Value != nil {
		data["value"] = *e.Value
	}
	for k, v := range e.Properties {
		data[k] = v
	}
	return data
}
