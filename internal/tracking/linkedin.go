package tracking

import (
	"net/http"

	"endflow/internal/models"
)

// newLinkedIn relays events through the LinkedIn Conversions API
// (POST /rest/conversionEvents). The event action is sent as the
// conversion id, matching the Insight Tag's lintrk('track') call.
func newLinkedIn(cfg DestinationConfig) *relay {
	base := baseURL(cfg.BaseURL, "https://api.linkedin.com")
	return newRelay(LinkedIn, models.ConsentMarketing, cfg.ID != "" && cfg.Secret != "",
		func(e models.Event) (string, http.Header, any) {
			h := bearer(cfg.Secret)
			h.Set("LinkedIn-Version", "202401")
			h.Set("X-Restli-Protocol-Version", "2.0.0")

			data := customData(e)
			data["conversion_id"] = e.Action

			body := linkedInEvent{
				Conversion:           "urn:lla:llaPartnerConversion:" + cfg.ID,
				ConversionHappenedAt: e.OccurredAt.UnixMilli(),
				EventID:              e.ID,
				Properties:           data,
			}
			if e.Value != nil {
				body.ConversionValue = &linkedInValue{CurrencyCode: "USD", Amount: *e.Value}
			}
			return base + "/rest/conversionEvents", h, body
		})
}

type linkedInEvent struct {
	Conversion           string         `json:"conversion"`
	ConversionHappenedAt int64          `json:"conversionHappenedAt"`
	EventID              string         `json:"eventId"`
	ConversionValue      *linkedInValue `json:"conversionValue,omitempty"`
	Properties           map[string]any `json:"properties"`
}

type linkedInValue struct {
	CurrencyCode string  `json:"currencyCode"`
	Amount       float64 `json:"amount"`
}
