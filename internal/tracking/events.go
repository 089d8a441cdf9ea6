package tracking

import "endflow/internal/models"

// Catalog event actions.
const (
	ActionPageView             = "page_view"
	ActionSignupStarted        = "signup_started"
	ActionSignupCompleted      = "signup_completed"
	ActionCreditsClaimed       = "credits_claimed"
	ActionDemoRequested        = "demo_requested"
	ActionDemoCompleted        = "demo_completed"
	ActionFirstSearchPerformed = "first_search_performed"
	ActionExportCompleted      = "export_completed"
	ActionBlogPostViewed       = "blog_post_viewed"
	ActionPricingPageViewed    = "pricing_page_viewed"
	ActionContactFormSubmitted = "contact_form_submitted"
)

// ExportFormat is a destination of the product's export feature.
type ExportFormat string

const (
	ExportCSV     ExportFormat = "csv"
	ExportWebhook ExportFormat = "webhook"
	ExportClay    ExportFormat = "clay"
)

// Valid reports whether f is a known export format.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportCSV, ExportWebhook, ExportClay:
		return true
	}
	return false
}

// catalog maps each known action to its category. Actions outside the
// catalog are accepted with a caller-supplied category.
var catalog = map[string]models.EventCategory{
	ActionPageView:             models.EventEngagement,
	ActionSignupStarted:        models.EventConversion,
	ActionSignupCompleted:      models.EventConversion,
	ActionCreditsClaimed:       models.EventConversion,
	ActionDemoRequested:        models.EventEngagement,
	ActionDemoCompleted:        models.EventEngagement,
	ActionFirstSearchPerformed: models.EventProduct,
	ActionExportCompleted:      models.EventProduct,
	ActionBlogPostViewed:       models.EventContent,
	ActionPricingPageViewed:    models.EventEngagement,
	ActionContactFormSubmitted: models.EventEngagement,
}

// CategoryOf returns the catalog category of action.
func CategoryOf(action string) (models.EventCategory, bool) {
	c, ok := catalog[action]
	return c, ok
}

func newEvent(action, label string, value *float64, props map[string]any) models.Event {
	return models.Event{
		Action:     action,
		Category:   catalog[action],
		Label:      label,
		Value:      value,
		Properties: props,
	}
}

func credits(n int) *float64 {
	v := float64(n)
	return &v
}

func PageView(page string) models.Event {
	return newEvent(ActionPageView, page, nil, nil)
}

func SignupStarted() models.Event {
	return newEvent(ActionSignupStarted, "signup_form", nil, nil)
}

func SignupCompleted(creditsGranted int) models.Event {
	return newEvent(ActionSignupCompleted, "account_created", credits(creditsGranted), nil)
}

// CreditsClaimed reports free credits claimed after signup.
func CreditsClaimed(claimed int) models.Event {
	return newEvent(ActionCreditsClaimed, "free_credits", credits(claimed), nil)
}

func DemoRequested() models.Event {
	return newEvent(ActionDemoRequested, "watch_demo", nil, nil)
}

func DemoCompleted() models.Event {
	return newEvent(ActionDemoCompleted, "demo_finished", nil, nil)
}

func FirstSearchPerformed(query string) models.Event {
	return newEvent(ActionFirstSearchPerformed, "initial_usage", nil, map[string]any{"search_query": query})
}

func ExportCompleted(format ExportFormat) models.Event {
	return newEvent(ActionExportCompleted, string(format), nil, nil)
}

func BlogPostViewed(title string) models.Event {
	return newEvent(ActionBlogPostViewed, title, nil, nil)
}

func PricingPageViewed() models.Event {
	return newEvent(ActionPricingPageViewed, "pricing_interest", nil, nil)
}

func ContactFormSubmitted() models.Event {
	return newEvent(ActionContactFormSubmitted, "support_request", nil, nil)
}
