package tracking

import (
	"net/http"
	"time"

	"endflow/internal/models"
)

// newHubSpot sends custom behavioral events (POST /events/v3/send). Event
// names are qualified with the portal id as HubSpot requires.
func newHubSpot(cfg DestinationConfig) *relay {
	base := baseURL(cfg.BaseURL, "https://api.hubapi.com")
	return newRelay(HubSpot, models.ConsentAnalytics, cfg.ID != "" && cfg.Secret != "",
		func(e models.Event) (string, http.Header, any) {
			props := make(map[string]any, len(e.Properties)+1)
			if e.Value != nil {
				props["value"] = *e.Value
			}
			for k, v := range e.Properties {
				props[k] = v
			}
			return base + "/events/v3/send", bearer(cfg.Secret), hubSpotEvent{
				EventName:  "pe" + cfg.ID + "_" + e.Action,
				OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339Nano),
				UUID:       e.ID,
				Properties: props,
			}
		})
}

type hubSpotEvent struct {
	EventName  string         `json:"eventName"`
	OccurredAt string         `json:"occurredAt"`
	UUID       string         `json:"uuid,omitempty"`
	Properties map[string]any `json:"properties"`
}
