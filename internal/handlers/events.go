// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"endflow/internal/attribution"
	"endflow/internal/middleware"
	"endflow/internal/models"
	"endflow/internal/tracking"
	"endflow/internal/visitor"
)

// EventDispatcher relays events to analytics destinations.
// *tracking.Dispatcher satisfies it.
type EventDispatcher interface {
	Dispatch(ctx context.Context, e models.Event) tracking.Outcome
}

// Events accepts behavioral events and page views from the site front end
// and hands them to the dispatcher. Relays are fire-and-forget, so the
// response only reports which destinations were started.
type Events struct {
	dispatcher EventDispatcher
	capturer   middleware.AttributionCapturer
}

// NewEvents creates a new Events handler group.
func NewEvents(dispatcher EventDispatcher, capturer middleware.AttributionCapturer) *Events {
	return &Events{dispatcher: dispatcher, capturer: capturer}
}

// eventRequest is the body of POST /api/events.
type eventRequest struct {
	ID         string               `json:"id"`
	Action     string               `json:"action"`
	Category   models.EventCategory `json:"category"`
	Label      string               `json:"label"`
	Value      *float64             `json:"value"`
	Properties map[string]any       `json:"properties"`
	PageURL    string               `json:"pageUrl"`
}

// pageviewRequest is the body of POST /api/pageview. URL is the full
// address the visitor is looking at, including any campaign parameters.
type pageviewRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Referrer string `json:"referrer"`
}

// Track dispatches a named event.
func (e *Events) Track(w http.ResponseWriter, r *http.Request) {
	id, ok := visitor.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusBadRequest, "missing visitor identity")
		return
	}

	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validateEvent(req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	category, known := tracking.CategoryOf(req.Action)
	if !known {
		category = req.Category
	}

	event := models.Event{
		ID:         req.ID,
		Action:     req.Action,
		Category:   category,
		Label:      req.Label,
		Value:      req.Value,
		Properties: req.Properties,
	}
	e.stamp(&event, r, id, req.PageURL)

	writeJSON(w, http.StatusAccepted, e.dispatcher.Dispatch(r.Context(), event))
}

// pageviewResponse reports the page view outcome plus any follow-up event.
type pageviewResponse struct {
	PageView tracking.Outcome  `json:"pageView"`
	FollowUp *tracking.Outcome `json:"followUp,omitempty"`
	Captured bool              `json:"attributionCaptured"`
}

// Pageview records a page view. The first page view of a session also
// captures campaign parameters from the page URL. Blog post and pricing
// pages emit an additional catalog event.
func (e *Events) Pageview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := visitor.FromContext(ctx)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing visitor identity")
		return
	}

	var req pageviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validatePageview(req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	page, _ := url.Parse(req.URL)

	var resp pageviewResponse
	// Only a campaign landing uses up the session's capture.
	if e.capturer != nil && !attribution.FromQuery(page.Query()).IsEmpty() {
		captured, err := e.capturer.CaptureOnce(ctx, id, page.Query())
		if err != nil {
			slog.Warn("attribution capture failed", "visitor", id.VisitorID, "error", err)
		}
		resp.Captured = captured
	}

	path := page.Path
	if path == "" {
		path = "/"
	}
	view := tracking.PageView(path)
	view.Properties = pageProperties(req)
	e.stamp(&view, r, id, req.URL)
	resp.PageView = e.dispatcher.Dispatch(ctx, view)

	if follow, ok := followUpEvent(path, req.Title); ok {
		follow.Properties = map[string]any{"page_path": path}
		e.stamp(&follow, r, id, req.URL)
		out := e.dispatcher.Dispatch(ctx, follow)
		resp.FollowUp = &out
	}

	writeJSON(w, http.StatusAccepted, resp)
}

// stamp attaches the request context to an event.
func (e *Events) stamp(ev *models.Event, r *http.Request, id visitor.Identity, pageURL string) {
	ev.VisitorID = id.VisitorID
	ev.PageURL = pageURL
	ev.ClientIP = middleware.ClientIP(r)
	ev.UserAgent = r.UserAgent()
}

func pageProperties(req pageviewRequest) map[string]any {
	props := map[string]any{"page_location": req.URL}
	if req.Title != "" {
		props["page_title"] = req.Title
	}
	if req.Referrer != "" {
		props["page_referrer"] = req.Referrer
	}
	return props
}

// followUpEvent returns the catalog event a page view of path implies.
func followUpEvent(path, title string) (models.Event, bool) {
	switch {
	case path == "/pricing":
		return tracking.PricingPageViewed(), true
	case strings.HasPrefix(path, "/blog/") && title != "" && !isListingPath(path):
		return tracking.BlogPostViewed(title), true
	}
	return models.Event{}, false
}

// isListingPath reports whether path is an author, category or tag listing
// rather than a post.
func isListingPath(path string) bool {
	for _, p := range []string{"/blog/author/", "/blog/category/", "/blog/tag/"} {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
