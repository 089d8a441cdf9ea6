package models

// AttributionParams are the campaign fields captured from a landing URL.
// Empty fields are stored as explicit empty strings.
type AttributionParams struct {
	Source   string `json:"utm_source"`
	Medium   string `json:"utm_medium"`
	Campaign string `json:"utm_campaign"`
	Term     string `json:"utm_term"`
	Content  string `json:"utm_content"`
}

// IsEmpty reports whether no field carries a value.
func (a AttributionParams) IsEmpty() bool {
	return a.Source == "" && a.Medium == "" && a.Campaign == "" && a.Term == "" && a.Content == ""
}

// Properties returns the non-empty fields keyed by their utm_* names.
func (a AttributionParams) Properties() map[string]any {
	props := make(map[string]any, 5)
	for k, v := range map[string]string{
		"utm_source":   a.Source,
		"utm_medium":   a.Medium,
		"utm_campaign": a.Campaign,
		"utm_term":     a.Term,
		"utm_content":  a.Content,
	} {
		if v != "" {
			props[k] = v
		}
	}
	return props
}
