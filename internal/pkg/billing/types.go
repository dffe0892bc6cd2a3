package billing

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
}

// Outcome describes what a webhook delivery did.
type Outcome struct {
	EventID   string
	EventType string
	OrderID   string
	// Duplicate is set when the event was already processed successfully.
	Duplicate bool
	// Ignored is set for event types or payloads that need no order change.
	Ignored bool
	// Changed reports whether an order row transitioned.
	Changed bool
}
