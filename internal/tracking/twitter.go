package tracking

import (
	"net/http"
	"net/url"
	"time"

	"endflow/internal/models"
)

// newTwitter relays events through the X conversions API
// (POST /12/measurement/conversions/{pixel-id}).
func newTwitter(cfg DestinationConfig) *relay {
	base := baseURL(cfg.BaseURL, "https://ads-api.x.com")
	return newRelay(Twitter, models.ConsentMarketing, cfg.ID != "" && cfg.Secret != "",
		func(e models.Event) (string, http.Header, any) {
			conv := twitterConversion{
				ConversionTime: e.OccurredAt.UTC().Format(time.RFC3339),
				EventID:        e.Action,
				ConversionID:   e.ID,
				Value:          e.Value,
				CustomData:     customData(e),
			}
			if e.ClientIP != "" {
				conv.Identifiers = append(conv.Identifiers, map[string]string{"ip_address": e.ClientIP})
			}
			if e.UserAgent != "" {
				conv.Identifiers = append(conv.Identifiers, map[string]string{"user_agent": e.UserAgent})
			}
			return base + "/12/measurement/conversions/" + url.PathEscape(cfg.ID), bearer(cfg.Secret),
				twitterRequest{Conversions: []twitterConversion{conv}}
		})
}

type twitterRequest struct {
	Conversions []twitterConversion `json:"conversions"`
}

type twitterConversion struct {
	ConversionTime string              `json:"conversion_time"`
	EventID        string              `json:"event_id"`
	ConversionID   string              `json:"conversion_id"`
	Value          *float64            `json:"value,omitempty"`
	Identifiers    []map[string]string `json:"identifiers,omitempty"`
	CustomData     map[string]any      `json:"custom_data"`
}
