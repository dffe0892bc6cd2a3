// Package billing reconciles local orders with asynchronous payment
// provider events.
package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/ManuelReschke/Storefront/internal/pkg/apperr"
	"github.com/ManuelReschke/Storefront/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/Storefront/internal/pkg/payment"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// Service verifies webhook deliveries, records them idempotently and
// applies order transitions.
type Service struct {
	provider payment.Provider
	events   Repository
	orders   repository.OrderRepository
	counters counter.Recorder
}

// NewService creates a billing service from injected collaborators.
func NewService(provider payment.Provider, events Repository, orders repository.OrderRepository) *Service {
	return &Service{provider: provider, events: events, orders: orders, counters: counter.NewMemory()}
}

// WithCounters replaces the in-process outcome counters.
func (s *Service) WithCounters(r counter.Recorder) *Service {
	s.counters = r
	return s
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider payment.Provider) *Service {
	return NewService(provider, NewRepository(db), repository.NewOrderRepository(db))
}

// HandleWebhook processes one signed delivery. Signature failures return a
// validation error before anything is stored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Outcome, error) {
	ev, err := s.provider.ParseWebhookEvent(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			fiberlog.Warnf("[Webhook] Rejected delivery with invalid signature")
			return nil, apperr.Validation("signature", "invalid webhook signature")
		}
		fiberlog.Warnf("[Webhook] Rejected malformed payload: %v", err)
		return nil, apperr.Validation("payload", "invalid webhook payload")
	}

	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        s.provider.Name(),
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(payload),
	})
	if err != nil {
		fiberlog.Errorf("[Webhook] Failed to record event %s: %v", ev.ID, err)
		return nil, apperr.Internal(err)
	}
	if !created && stored.ProcessedAt != nil && stored.ProcessingError == "" {
		s.count(ctx, counter.WebhookDuplicate)
		return &Outcome{EventID: ev.ID, EventType: ev.Type, OrderID: ev.OrderID(), Duplicate: true}, nil
	}

	outcome, applyErr := s.apply(ctx, ev)
	if err := s.MarkWebhookProcessed(ctx, stored.ID, applyErr); err != nil {
		fiberlog.Errorf("[Webhook] Failed to mark event %s processed: %v", ev.ID, err)
	}
	if applyErr != nil {
		fiberlog.Errorf("[Webhook] Event %s (%s) failed: %v", ev.ID, ev.Type, applyErr)
		return nil, apperr.Internal(applyErr)
	}
	return outcome, nil
}

func (s *Service) apply(ctx context.Context, ev *payment.Event) (*Outcome, error) {
	out := &Outcome{EventID: ev.ID, EventType: ev.Type, OrderID: ev.OrderID()}

	var (
		changed bool
		err     error
	)
	switch ev.Type {
	case payment.EventCheckoutCompleted:
		if out.OrderID == "" {
			fiberlog.Warnf("[Webhook] Event %s has no order id, ignoring", ev.ID)
			out.Ignored = true
			return out, nil
		}
		changed, err = s.orders.MarkCompleted(ctx, out.OrderID, ev.PaymentIntentID)
	case payment.EventCheckoutExpired:
		if out.OrderID == "" {
			fiberlog.Warnf("[Webhook] Event %s has no order id, ignoring", ev.ID)
			out.Ignored = true
			return out, nil
		}
		changed, err = s.orders.MarkFailed(ctx, out.OrderID)
	case payment.EventPaymentFailed:
		if ev.PaymentIntentID == "" {
			fiberlog.Warnf("[Webhook] Event %s has no payment intent, ignoring", ev.ID)
			out.Ignored = true
			return out, nil
		}
		changed, err = s.orders.MarkFailedByPaymentIntent(ctx, ev.PaymentIntentID)
	default:
		out.Ignored = true
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	out.Changed = changed
	if changed {
		if ev.Type == payment.EventCheckoutCompleted {
			s.count(ctx, counter.CheckoutCompleted)
		} else {
			s.count(ctx, counter.CheckoutFailed)
		}
		fiberlog.Infof("[Webhook] Event %s (%s) applied to order %s", ev.ID, ev.Type, orderLabel(out.OrderID, ev.PaymentIntentID))
	} else {
		fiberlog.Infof("[Webhook] Event %s (%s) left order %s unchanged", ev.ID, ev.Type, orderLabel(out.OrderID, ev.PaymentIntentID))
	}
	return out, nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.PaymentWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
	}
	return s.events.CreateIfNotExists(ctx, event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.events.MarkProcessed(ctx, webhookEventID, errMsg)
}

func (s *Service) count(ctx context.Context, ev counter.Event) {
	if err := s.counters.Add(ctx, ev, counter.TotalField); err != nil {
		fiberlog.Warnf("[Webhook] Failed to count %s: %v", ev, err)
	}
}

func orderLabel(orderID, paymentIntentID string) string {
	if orderID != "" {
		return orderID
	}
	return "with payment intent " + paymentIntentID
}
