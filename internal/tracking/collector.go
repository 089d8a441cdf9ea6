package tracking

import (
	"net/http"
	"time"

	"endflow/internal/models"
)

// Product Hunt and RB2B have no public event API; both relay to a
// configured collector endpoint with the same payload as their browser tags.

func newProductHunt(cfg DestinationConfig) *relay {
	return newCollector(ProductHunt, cfg)
}

func newRB2B(cfg DestinationConfig) *relay {
	return newCollector(RB2B, cfg)
}

func newCollector(name string, cfg DestinationConfig) *relay {
	return newRelay(name, models.ConsentMarketing, cfg.ID != "" && cfg.Endpoint != "",
		func(e models.Event) (string, http.Header, any) {
			var h http.Header
			if cfg.Secret != "" {
				h = bearer(cfg.Secret)
			}
			return cfg.Endpoint, h, collectorEvent{
				PixelID:    cfg.ID,
				EventID:    e.ID,
				Event:      e.Action,
				VisitorID:  e.VisitorID,
				PageURL:    e.PageURL,
				OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
				Properties: customData(e),
			}
		})
}

type collectorEvent struct {
	PixelID    string         `json:"pixel_id"`
	EventID    string         `json:"event_id"`
	Event      string         `json:"event"`
	VisitorID  string         `json:"visitor_id,omitempty"`
	PageURL    string         `json:"page_url,omitempty"`
	OccurredAt string         `json:"occurred_at"`
	Properties map[string]any `json:"properties"`
}
