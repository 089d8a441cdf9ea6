package tracking

import (
	"net/http"
	"net/url"
	"time"

	"endflow/internal/models"
)

// newReddit relays events through the Reddit Conversions API
// (POST /api/v2.0/conversions/events/{pixel-id}) as custom events.
func newReddit(cfg DestinationConfig) *relay {
	base := baseURL(cfg.BaseURL, "https://ads-api.reddit.com")
	return newRelay(Reddit, models.ConsentMarketing, cfg.ID != "" && cfg.Secret != "",
		func(e models.Event) (string, http.Header, any) {
			meta := customData(e)
			meta["conversion_id"] = e.ID

			return base + "/api/v2.0/conversions/events/" + url.PathEscape(cfg.ID), bearer(cfg.Secret),
				redditRequest{Events: []redditEvent{{
					EventAt: e.OccurredAt.UTC().Format(time.RFC3339),
					EventType: redditEventType{
						TrackingType:    "Custom",
						CustomEventName: e.Action,
					},
					EventMetadata: meta,
					User: redditUser{
						IPAddress: e.ClientIP,
						UserAgent: e.UserAgent,
					},
				}}}
		})
}

type redditRequest struct {
	Events []redditEvent `json:"events"`
}

type redditEvent struct {
	EventAt       string          `json:"event_at"`
	EventType     redditEventType `json:"event_type"`
	EventMetadata map[string]any  `json:"event_metadata"`
	User          redditUser      `json:"user"`
}

type redditEventType struct {
	TrackingType    string `json:"tracking_type"`
	CustomEventName string `json:"custom_event_name"`
}

type redditUser struct {
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}
