package tracking

import (
	"net/http"
	"net/url"

	"endflow/internal/models"
)

// newGA4 relays events through the GA4 Measurement Protocol
// (POST /mp/collect).
func newGA4(cfg DestinationConfig) *relay {
	base := baseURL(cfg.BaseURL, "https://www.google-analytics.com")
	return newRelay(GA4, models.ConsentAnalytics, cfg.ID != "" && cfg.Secret != "",
		func(e models.Event) (string, http.Header, any) {
			q := url.Values{}
			q.Set("measurement_id", cfg.ID)
			q.Set("api_secret", cfg.Secret)

			params := map[string]any{"event_category": string(e.Category)}
			if e.Label != "" {
				params["event_label"] = e.Label
			}
			if e.Value != nil {
				params["value"] = *e.Value
			}
			if e.PageURL != "" {
				params["page_location"] = e.PageURL
			}
			for k, v := range e.Properties {
				params[k] = v
			}

			return base + "/mp/collect?" + q.Encode(), nil, ga4Request{
				ClientID:        e.VisitorID,
				TimestampMicros: e.OccurredAt.UnixMicro(),
				Events:          []ga4Event{{Name: e.Action, Params: params}},
			}
		})
}

type ga4Request struct {
	ClientID        string     `json:"client_id"`
	TimestampMicros int64      `json:"timestamp_micros"`
	Events          []ga4Event `json:"events"`
}

type ga4Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}
