package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/ManuelReschke/Storefront/app/models"
)

// StripeProvider talks to the Stripe API.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

// NewStripeProvider builds a provider from a secret API key and the webhook
// signing secret. Both are required.
func NewStripeProvider(secretKey, webhookSecret string) (*StripeProvider, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("stripe secret key is not configured")
	}
	if strings.TrimSpace(webhookSecret) == "" {
		return nil, fmt.Errorf("stripe webhook secret is not configured")
	}
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		tolerance:     webhook.DefaultTolerance,
	}, nil
}

func (p *StripeProvider) Name() string {
	return models.PaymentProviderStripe
}

func (p *StripeProvider) CreateProduct(ctx context.Context, in ProductInput) (string, error) {
	params := &stripe.ProductParams{
		Name: stripe.String(in.Name),
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	prod, err := p.api.Products.New(params)
	if err != nil {
		return "", err
	}
	return prod.ID, nil
}

func (p *StripeProvider) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	params := &stripe.ProductParams{
		Name: stripe.String(in.Name),
	}
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	_, err := p.api.Products.Update(id, params)
	return err
}

func (p *StripeProvider) CreatePrice(ctx context.Context, productID string, in PriceInput) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(productID),
		Currency:   stripe.String(strings.ToLower(in.Currency)),
		UnitAmount: stripe.Int64(in.UnitAmount),
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	price, err := p.api.Prices.New(params)
	if err != nil {
		return "", err
	}
	return price.ID, nil
}

func (p *StripeProvider) ArchiveProduct(ctx context.Context, id string) error {
	params := &stripe.ProductParams{
		Active: stripe.Bool(false),
	}
	params.Context = ctx
	_, err := p.api.Products.Update(id, params)
	return err
}

func (p *StripeProvider) ArchivePrice(ctx context.Context, priceID string) error {
	params := &stripe.PriceParams{
		Active: stripe.Bool(false),
	}
	params.Context = ctx
	_, err := p.api.Prices.Update(priceID, params)
	return err
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(quantity),
			},
		},
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	if in.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(in.ClientReferenceID)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	out := &CheckoutSession{ID: sess.ID, URL: sess.URL}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	return out, nil
}

// ParseWebhookEvent verifies the Stripe-Signature header and normalizes the
// event. Unknown event types are returned with only ID and Type set.
func (p *StripeProvider) ParseWebhookEvent(payload []byte, signatureHeader string) (*Event, error) {
	if err := webhook.ValidatePayloadWithTolerance(payload, signatureHeader, p.webhookSecret, p.tolerance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return parseStripeEvent(payload)
}

func parseStripeEvent(payload []byte) (*Event, error) {
	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("stripe event payload missing id")
	}

	ev := &Event{ID: raw.ID, Type: string(raw.Type)}
	if raw.Data == nil || len(raw.Data.Raw) == 0 {
		return ev, nil
	}

	switch ev.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		ev.SessionID = sess.ID
		ev.Metadata = sess.Metadata
		if sess.PaymentIntent != nil {
			ev.PaymentIntentID = sess.PaymentIntent.ID
		}
	case EventPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		ev.PaymentIntentID = pi.ID
		ev.Metadata = pi.Metadata
	}
	return ev, nil
}
