// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test helpers for the handler tests.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"endflow/internal/visitor"
)

// testIdentity is attached to every request built by newRequest.
var testIdentity = visitor.Identity{
	VisitorID: "8b7f2b2e-5b8c-4d7e-9a43-1f2f7c9d0a11",
	SessionID: "0d1e2f30-4152-4637-8899-aabbccddeeff",
}

// newRequest builds a request carrying testIdentity.
func newRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:51234"
	return req.WithContext(visitor.WithIdentity(req.Context(), testIdentity))
}

// decodeBody decodes a JSON response body into a generic map.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v (raw %q)", err, rr.Body.String())
	}
	return body
}

