package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuelReschke/Storefront/internal/pkg/payment"
)

// FakeProvider records calls and hands out sequential remote ids.
// Set the *Err fields to make the matching call fail.
type FakeProvider struct {
	mu sync.Mutex

	CreateProductErr  error
	UpdateProductErr  error
	ArchiveProductErr error
	CreatePriceErr    error
	ArchivePriceErr   error
	SessionErr        error
	ParseErr          error

	// Delay is slept inside CreateProduct and CreatePrice to widen race windows.
	Delay time.Duration

	// NextEvent is returned by ParseWebhookEvent when ParseErr is nil.
	NextEvent *payment.Event

	ProductsCreated  []payment.ProductInput
	ProductsUpdated  []string
	ProductsArchived []string
	PricesCreated    []PriceCall
	PricesArchived   []string
	SessionsCreated  []payment.CheckoutSessionInput
	SessionPIFactory func(n int) string

	seq int
}

// PriceCall is one CreatePrice invocation.
type PriceCall struct {
	ProductID string
	Input     payment.PriceInput
}

var _ payment.Provider = (*FakeProvider)(nil)

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) CreateProduct(ctx context.Context, in payment.ProductInput) (string, error) {
	f.sleep()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateProductErr != nil {
		return "", f.CreateProductErr
	}
	f.ProductsCreated = append(f.ProductsCreated, in)
	return f.nextID("prod"), nil
}

func (f *FakeProvider) UpdateProduct(ctx context.Context, id string, in payment.ProductInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateProductErr != nil {
		return f.UpdateProductErr
	}
	f.ProductsUpdated = append(f.ProductsUpdated, id)
	return nil
}

func (f *FakeProvider) ArchiveProduct(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ArchiveProductErr != nil {
		return f.ArchiveProductErr
	}
	f.ProductsArchived = append(f.ProductsArchived, id)
	return nil
}

func (f *FakeProvider) CreatePrice(ctx context.Context, productID string, in payment.PriceInput) (string, error) {
	f.sleep()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreatePriceErr != nil {
		return "", f.CreatePriceErr
	}
	f.PricesCreated = append(f.PricesCreated, PriceCall{ProductID: productID, Input: in})
	return f.nextID("price"), nil
}

func (f *FakeProvider) ArchivePrice(ctx context.Context, priceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ArchivePriceErr != nil {
		return f.ArchivePriceErr
	}
	f.PricesArchived = append(f.PricesArchived, priceID)
	return nil
}

func (f *FakeProvider) CreateCheckoutSession(ctx context.Context, in payment.CheckoutSessionInput) (*payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SessionErr != nil {
		return nil, f.SessionErr
	}
	f.SessionsCreated = append(f.SessionsCreated, in)
	id := f.nextID("cs")
	sess := &payment.CheckoutSession{ID: id, URL: "https://pay.example.test/" + id}
	if f.SessionPIFactory != nil {
		sess.PaymentIntentID = f.SessionPIFactory(len(f.SessionsCreated))
	}
	return sess, nil
}

func (f *FakeProvider) ParseWebhookEvent(payload []byte, signatureHeader string) (*payment.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ParseErr != nil {
		return nil, f.ParseErr
	}
	if f.NextEvent == nil {
		return nil, payment.ErrInvalidSignature
	}
	ev := *f.NextEvent
	return &ev, nil
}

// PriceCount returns the number of CreatePrice calls.
func (f *FakeProvider) PriceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.PricesCreated)
}

// ProductCount returns the number of CreateProduct calls.
func (f *FakeProvider) ProductCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ProductsCreated)
}

// SessionCount returns the number of CreateCheckoutSession calls.
func (f *FakeProvider) SessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SessionsCreated)
}

func (f *FakeProvider) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s_%d", prefix, f.seq)
}

func (f *FakeProvider) sleep() {
	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}
}
