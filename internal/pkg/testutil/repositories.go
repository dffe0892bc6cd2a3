// Package testutil provides in-memory stand-ins for the GORM repositories
// and the payment provider.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ManuelReschke/Storefront/app/models"
	"github.com/ManuelReschke/Storefront/app/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store backs the in-memory repositories. Products and orders live in one
// store so product deletion can see order items.
type Store struct {
	mu       sync.Mutex
	products map[string]*models.Product
	orders   map[string]*models.Order
	events   map[string]*models.PaymentWebhookEvent
	nextItem uint
	nextEvt  uint
}

func NewStore() *Store {
	return &Store{
		products: make(map[string]*models.Product),
		orders:   make(map[string]*models.Order),
		events:   make(map[string]*models.PaymentWebhookEvent),
	}
}

// Products returns a repository.ProductRepository over the store.
func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }

// Orders returns a repository.OrderRepository over the store.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// WebhookEvents returns a webhook event log over the store.
func (s *Store) WebhookEvents() *WebhookEventRepository { return &WebhookEventRepository{s: s} }

// OrderCount returns the number of stored orders.
func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type ProductRepository struct {
	s *Store
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == product.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now()
	product.CreatedAt, product.UpdatedAt = now, now
	for i := range product.Prices {
		if product.Prices[i].ID == "" {
			product.Prices[i].ID = uuid.NewString()
		}
		product.Prices[i].ProductID = product.ID
	}
	for i := range product.Translations {
		product.Translations[i].ID = uint(i + 1)
		product.Translations[i].ProductID = product.ID
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *ProductRepository) SlugExists(_ context.Context, slug string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *ProductRepository) UpdateStatus(_ context.Context, id, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	return nil
}

func (r *ProductRepository) ReplacePricing(_ context.Context, productID string, update repository.PricingUpdate) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.BasePrice = update.BasePrice
	p.BaseCurrency = update.BaseCurrency

	var stale []string
	next := make([]models.ProductPrice, 0, len(update.Prices))
	keep := make(map[string]bool, len(update.Prices))
	for _, in := range update.Prices {
		keep[in.Currency] = true
		if cur, found := p.PriceFor(in.Currency); found {
			row := *cur
			row.IsOverride = in.IsOverride
			if !equalAmounts(cur.Amount, in.Amount) {
				if id := cur.RemoteID(); id != "" {
					stale = append(stale, id)
				}
				row.Amount = in.Amount
				row.ProviderPriceID = nil
			}
			next = append(next, row)
			continue
		}
		row := in
		row.ID = uuid.NewString()
		row.ProductID = productID
		row.ProviderPriceID = nil
		next = append(next, row)
	}
	for _, cur := range p.Prices {
		if !keep[cur.Currency] {
			if id := cur.RemoteID(); id != "" {
				stale = append(stale, id)
			}
		}
	}
	sort.Slice(next, func(i, j int) bool { return next[i].Currency < next[j].Currency })
	p.Prices = next
	return stale, nil
}

func (r *ProductRepository) SetProviderProductID(_ context.Context, productID, remoteID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || p.ProviderProductID != nil {
		return false, nil
	}
	p.ProviderProductID = strPtr(remoteID)
	return true, nil
}

func (r *ProductRepository) SetProviderPriceID(_ context.Context, priceID, remoteID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		for i := range p.Prices {
			if p.Prices[i].ID != priceID {
				continue
			}
			if p.Prices[i].ProviderPriceID != nil {
				return false, nil
			}
			p.Prices[i].ProviderPriceID = strPtr(remoteID)
			return true, nil
		}
	}
	return false, nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	for _, o := range r.s.orders {
		for _, it := range o.Items {
			if it.ProductID == id {
				return repository.ErrProductInUse
			}
		}
	}
	delete(r.s.products, id)
	return nil
}

type OrderRepository struct {
	s *Store
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	for i := range order.Items {
		r.s.nextItem++
		order.Items[i].ID = r.s.nextItem
		order.Items[i].OrderID = order.ID
	}
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) SetCheckoutSession(_ context.Context, id, sessionID, paymentIntentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.ProviderSessionID = strPtr(sessionID)
	if paymentIntentID != "" {
		o.ProviderPaymentIntentID = strPtr(paymentIntentID)
	}
	return nil
}

func (r *OrderRepository) MarkCompleted(_ context.Context, id, paymentIntentID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status == models.OrderStatusCompleted {
		return false, nil
	}
	now := time.Now()
	o.Status = models.OrderStatusCompleted
	o.CompletedAt = &now
	if paymentIntentID != "" && o.ProviderPaymentIntentID == nil {
		o.ProviderPaymentIntentID = strPtr(paymentIntentID)
	}
	return true, nil
}

func (r *OrderRepository) MarkFailed(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	o.Status = models.OrderStatusFailed
	return true, nil
}

func (r *OrderRepository) MarkFailedByPaymentIntent(_ context.Context, paymentIntentID string) (bool, error) {
	if paymentIntentID == "" {
		return false, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.ProviderPaymentIntentID != nil && *o.ProviderPaymentIntentID == paymentIntentID && o.Status == models.OrderStatusPending {
			o.Status = models.OrderStatusFailed
			return true, nil
		}
	}
	return false, nil
}

func (r *OrderRepository) CountItemsForProduct(_ context.Context, productID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, o := range r.s.orders {
		for _, it := range o.Items {
			if it.ProductID == productID {
				n++
			}
		}
	}
	return n, nil
}

// WebhookEventRepository is an in-memory webhook event log.
type WebhookEventRepository struct {
	s *Store
}

func (r *WebhookEventRepository) CreateIfNotExists(_ context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := event.Provider + "|" + event.ProviderEventID
	if stored, ok := r.s.events[key]; ok {
		cp := *stored
		return false, &cp, nil
	}
	r.s.nextEvt++
	row := *event
	row.ID = r.s.nextEvt
	row.CreatedAt = time.Now()
	r.s.events[key] = &row
	cp := row
	return true, &cp, nil
}

func (r *WebhookEventRepository) MarkProcessed(_ context.Context, id uint, processingError string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// Events returns a copy of the stored webhook events.
func (r *WebhookEventRepository) Events() []models.PaymentWebhookEvent {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.PaymentWebhookEvent, 0, len(r.s.events))
	for _, e := range r.s.events {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneProduct(p *models.Product) *models.Product {
	cp := *p
	cp.ProviderProductID = clonePtr(p.ProviderProductID)
	cp.Prices = make([]models.ProductPrice, len(p.Prices))
	for i, pr := range p.Prices {
		pr.ProviderPriceID = clonePtr(pr.ProviderPriceID)
		cp.Prices[i] = pr
	}
	cp.Translations = append([]models.ProductTranslation(nil), p.Translations...)
	return &cp
}

func cloneOrder(o *models.Order) *models.Order {
	cp := *o
	cp.ProviderSessionID = clonePtr(o.ProviderSessionID)
	cp.ProviderPaymentIntentID = clonePtr(o.ProviderPaymentIntentID)
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	return strPtr(*s)
}

func strPtr(s string) *string { return &s }

func equalAmounts(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return da.Equal(db)
}
