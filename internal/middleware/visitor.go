// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"endflow/internal/attribution"
	"endflow/internal/visitor"
)

// Visitor identifies the visitor and session of every request from their
// cookies, issuing new ones as needed, and stores the identity in the
// request context.
func Visitor(secureCookies bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := visitor.Identify(w, r, secureCookies)
			next.ServeHTTP(w, r.WithContext(visitor.WithIdentity(r.Context(), id)))
		})
	}
}

// AttributionCapturer records campaign parameters once per session.
// *attribution.Capturer satisfies it.
type AttributionCapturer interface {
	CaptureOnce(ctx context.Context, id visitor.Identity, q url.Values) (bool, error)
}

// Attribution captures utm_* parameters from GET requests that carry at
// least one of them. Requests without campaign fields never use up the
// session's single capture. It must run after Visitor. Capture failures are
// logged and never block the request.
func Attribution(c AttributionCapturer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet && !attribution.FromQuery(r.URL.Query()).IsEmpty() {
				if id, ok := visitor.FromContext(r.Context()); ok {
					if _, err := c.CaptureOnce(r.Context(), id, r.URL.Query()); err != nil {
						slog.Warn("attribution capture failed", "visitor", id.VisitorID, "error", err)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
