// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cms queries the headless content store. It builds GROQ queries for
// the document shapes the site reads and submits them to the store's HTTP
// query API, mapping "no result" and transport failures onto sentinel errors.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a query matches no document.
	ErrNotFound = errors.New("cms: document not found")
	// ErrRetrieval wraps transport failures, non-2xx responses and malformed payloads.
	ErrRetrieval = errors.New("cms: retrieval failed")
)

// maxGETLength is the longest query URL sent as GET; longer queries are POSTed.
const maxGETLength = 8 * 1024

// Config holds the content store project coordinates and credentials.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	BaseURL    string // overrides the project host, e.g. for tests
	Timeout    time.Duration
}

// Client submits queries to the content store.
type Client struct {
	endpoint string
	token    string
	client   *http.Client
}

// New creates a client for the configured project and dataset.
func New(cfg Config) (*Client, error) {
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("cms: dataset is required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-01-01"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("cms: project id is required")
		}
		host := "api"
		// Authenticated requests bypass the CDN so drafts-aware tokens see fresh data.
		if cfg.UseCDN && cfg.Token == "" {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, host)
	}

	return &Client{
		endpoint: fmt.Sprintf("%s/v%s/data/query/%s", base, strings.TrimPrefix(cfg.APIVersion, "v"), cfg.Dataset),
		token:    cfg.Token,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Endpoint returns the query URL the client submits to.
func (c *Client) Endpoint() string { return c.endpoint }

// Fetch runs q and decodes the result into out. A null result yields
// ErrNotFound; every other failure wraps ErrRetrieval.
func (c *Client) Fetch(ctx context.Context, q Query, out any) error {
	req, err := c.newRequest(ctx, q)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRetrieval, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", ErrRetrieval, resp.StatusCode, truncate(string(body), 200))
	}

	var envelope queryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: decode envelope: %w", ErrRetrieval, err)
	}

	result := bytes.TrimSpace(envelope.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return ErrNotFound
	}

	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("%w: decode result: %w", ErrRetrieval, err)
	}
	return nil
}

// newRequest encodes the query as GET parameters, falling back to a POST
// body when the URL would be too long.
func (c *Client) newRequest(ctx context.Context, q Query) (*http.Request, error) {
	values := url.Values{}
	values.Set("query", q.Text)
	for name, v := range q.Params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	var req *http.Request
	u := c.endpoint + "?" + values.Encode()
	if len(u) <= maxGETLength {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req = r
	} else {
		payload, err := json.Marshal(queryRequest{Query: q.Text, Params: q.Params})
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		req = r
	}

	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type queryRequest struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params,omitempty"`
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	MS     int             `json:"ms"`
}
