// Package payment wraps the remote payment provider: products, prices,
// checkout sessions and signed webhook events.
package payment

import (
	"context"
	"errors"
)

// Event types the storefront reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
	EventPaymentFailed     = "payment_intent.payment_failed"
)

// MetadataOrderID links provider objects back to the local order.
const MetadataOrderID = "order_id"

// SessionIDPlaceholder is substituted by the provider with the real session id
// in the success URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ProductInput describes a remote product.
type ProductInput struct {
	Name        string
	Description string
	Metadata    map[string]string
}

// PriceInput describes a remote one-time price. UnitAmount is in minor units.
type PriceInput struct {
	Currency   string
	UnitAmount int64
	Metadata   map[string]string
}

// CheckoutSessionInput describes a hosted checkout session for one price.
type CheckoutSessionInput struct {
	PriceID           string
	Quantity          int64
	CustomerEmail     string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

// CheckoutSession is the provider's answer to a session request.
// PaymentIntentID is empty when the provider creates the intent lazily.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
}

// Event is a verified, provider-neutral webhook event.
type Event struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	Metadata        map[string]string
}

// OrderID returns the local order id embedded in the event metadata.
func (e *Event) OrderID() string {
	if e == nil || e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetadataOrderID]
}

// Provider is the remote payment processor. Errors are returned unmodified
// to the caller; implementations do not retry.
type Provider interface {
	Name() string
	CreateProduct(ctx context.Context, in ProductInput) (string, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) error
	ArchiveProduct(ctx context.Context, id string) error
	CreatePrice(ctx context.Context, productID string, in PriceInput) (string, error)
	ArchivePrice(ctx context.Context, priceID string) error
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	ParseWebhookEvent(payload []byte, signatureHeader string) (*Event, error)
}
