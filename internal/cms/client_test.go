// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cms

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"endflow/internal/models"
)

// newTestClient starts a server with the given handler and returns a client
// pointed at it.
func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{Dataset: "production", APIVersion: "2024-01-01", Token: token, BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewEndpoint(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "api host",
			cfg:  Config{ProjectID: "abc", Dataset: "production"},
			want: "https://abc.api.sanity.io/v2024-01-01/data/query/production",
		},
		{
			name: "cdn host",
			cfg:  Config{ProjectID: "abc", Dataset: "production", UseCDN: true},
			want: "https://abc.apicdn.sanity.io/v2024-01-01/data/query/production",
		},
		{
			name: "token bypasses cdn",
			cfg:  Config{ProjectID: "abc", Dataset: "staging", UseCDN: true, Token: "t", APIVersion: "v2025-02-19"},
			want: "https://abc.api.sanity.io/v2025-02-19/data/query/staging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if c.Endpoint() != tt.want {
				t.Errorf("Endpoint() = %q, want %q", c.Endpoint(), tt.want)
			}
		})
	}

	if _, err := New(Config{Dataset: "production"}); err == nil {
		t.Error("expected error without project id")
	}
	if _, err := New(Config{ProjectID: "abc"}); err == nil {
		t.Error("expected error without dataset")
	}
}

func TestFetchEncodesQuery(t *testing.T) {
	var gotQuery, gotSlug, gotAuth string
	c := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		gotQuery = r.URL.Query().Get("query")
		gotSlug = r.URL.Query().Get("$slug")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"ms": 3, "result": {"_id": "p1", "title": "Hello", "slug": {"current": "hello"}}}`))
	})

	q, err := BySlug(models.DocTypePost, "hello", true)
	if err != nil {
		t.Fatalf("BySlug: %v", err)
	}

	var post models.Post
	if err := c.Fetch(context.Background(), q, &post); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotQuery != q.Text {
		t.Errorf("query param mismatch:\n got %q\nwant %q", gotQuery, q.Text)
	}
	if gotSlug != `"hello"` {
		t.Errorf("$slug = %q, want JSON-encoded string", gotSlug)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if post.ID != "p1" || post.Slug.Current != "hello" {
		t.Errorf("unexpected post: %+v", post)
	}
}

func TestFetchLongQueryUsesPost(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var req queryRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req.Params["id"] != strings.Repeat("x", 9000) {
			t.Error("params not forwarded in POST body")
		}
		w.Write([]byte(`{"result": []}`))
	})

	q := Query{Text: "*[_id == $id]", Params: map[string]any{"id": strings.Repeat("x", 9000)}}
	var out []models.Post
	if err := c.Fetch(context.Background(), q, &out); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty result, got %d", len(out))
	}
}

func TestFetchNotFound(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ms": 1, "result": null}`))
	})

	q, _ := BySlug(models.DocTypePost, "missing-slug", true)
	var post models.Post
	err := c.Fetch(context.Background(), q, &post)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestFetchRetrievalFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "malformed envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>not json</html>`))
			},
		},
		{
			name: "result of the wrong shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"result": "a string"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "", tt.handler)
			var post models.Post
			err := c.Fetch(context.Background(), Query{Text: "*[0]"}, &post)
			if !errors.Is(err, ErrRetrieval) {
				t.Errorf("error = %v, want ErrRetrieval", err)
			}
		})
	}
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(Config{Dataset: "production", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out []models.Post
	err = c.Fetch(context.Background(), Query{Text: "*"}, &out)
	if !errors.Is(err, ErrRetrieval) {
		t.Errorf("error = %v, want ErrRetrieval", err)
	}
}
