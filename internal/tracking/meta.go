package tracking

import (
	"net/http"
	"net/url"

	"endflow/internal/models"
)

// newMeta relays events through the Meta Conversions API
// (POST /{pixel-id}/events).
func newMeta(cfg DestinationConfig) *relay {
	base := baseURL(cfg.BaseURL, "https://graph.facebook.com/v19.0")
	return newRelay(Meta, models.ConsentMarketing, cfg.ID != "" && cfg.Secret != "",
		func(e models.Event) (string, http.Header, any) {
			q := url.Values{}
			q.Set("access_token", cfg.Secret)

			return base + "/" + url.PathEscape(cfg.ID) + "/events?" + q.Encode(), nil, metaRequest{
				Data: []metaEvent{{
					EventName:      e.Action,
					EventTime:      e.OccurredAt.Unix(),
					EventID:        e.ID,
					ActionSource:   "website",
					EventSourceURL: e.PageURL,
					UserData: metaUserData{
						ClientIPAddress: e.ClientIP,
						ClientUserAgent: e.UserAgent,
						ExternalID:      e.VisitorID,
					},
					CustomData: customData(e),
				}},
			}
		})
}

type metaRequest struct {
	Data []metaEvent `json:"data"`
}

type metaEvent struct {
	EventName      string         `json:"event_name"`
	EventTime      int64          `json:"event_time"`
	EventID        string         `json:"event_id"`
	ActionSource   string         `json:"action_source"`
	EventSourceURL string         `json:"event_source_url,omitempty"`
	UserData       metaUserData   `json:"user_data"`
	CustomData     map[string]any `json:"custom_data"`
}

type metaUserData struct {
	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	ExternalID      string `json:"external_id,omitempty"`
}
