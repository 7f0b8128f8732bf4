// Package memory provides in-process entity stores keyed by identifier.
//
// Stores hold pointers, so every caller observes the same entity: a product
// loaded twice is the same *product.Product, and line items in different
// orders see the same price and stock.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xenking/kart-orders/internal/domain/order"
	"github.com/xenking/kart-orders/internal/domain/product"
)

var (
	_ product.Repository       = (*ProductStore)(nil)
	_ order.CustomerRepository = (*CustomerStore)(nil)
	_ order.Repository         = (*OrderStore)(nil)
)

// ProductStore implements product.Repository in memory.
type ProductStore struct {
	mu   sync.RWMutex
	byID map[string]*product.Product
}

// NewProductStore returns an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{byID: make(map[string]*product.Product)}
}

// List returns all products ordered by ID.
func (s *ProductStore) List(_ context.Context) ([]*product.Product, error) {
	s.mu.RLock()
	out := make([]*product.Product, 0, len(s.byID))
	for _, p := range s.byID {
		out = append(out, p)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *product.Product) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// GetByID returns the product with the given ID or product.ErrNotFound.
func (s *ProductStore) GetByID(_ context.Context, id string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

// GetByIDs returns the products matching any of ids. Unknown IDs are skipped.
func (s *ProductStore) GetByIDs(_ context.Context, ids []string) ([]*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*product.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Save stores p. When a different instance is already stored under the same
// ID, p's values are copied into it, so the stored pointer stays the one line
// items reference.
func (s *ProductStore) Save(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.byID[p.ID]; ok {
		cur.Assign(p)
		return nil
	}
	s.byID[p.ID] = p
	return nil
}

// Update applies fn to the stored product. Updates are serialised store-wide.
func (s *ProductStore) Update(_ context.Context, id string, fn func(*product.Product) error) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	return p, nil
}

// CustomerStore implements order.CustomerRepository in memory.
type CustomerStore struct {
	mu   sync.RWMutex
	byID map[string]*order.Customer
}

// NewCustomerStore returns an empty CustomerStore.
func NewCustomerStore() *CustomerStore {
	return &CustomerStore{byID: make(map[string]*order.Customer)}
}

// Save stores c, replacing any customer with the same ID.
func (s *CustomerStore) Save(_ context.Context, c *order.Customer) error {
	s.mu.Lock()
	s.byID[c.ID] = c
	s.mu.Unlock()
	return nil
}

// GetByID returns the customer with the given ID or order.ErrCustomerNotFound.
func (s *CustomerStore) GetByID(_ context.Context, id string) (*order.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, order.ErrCustomerNotFound
	}
	return c, nil
}

// OrderStore implements order.Repository in memory.
type OrderStore struct {
	mu   sync.RWMutex
	byID map[string]*order.Order
}

// NewOrderStore returns an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{byID: make(map[string]*order.Order)}
}

// Save stores o, replacing any order with the same ID.
func (s *OrderStore) Save(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	s.byID[o.ID] = o
	s.mu.Unlock()
	return nil
}

// GetByID returns the order with the given ID or order.ErrNotFound.
func (s *OrderStore) GetByID(_ context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

// Update applies fn to the stored order. Updates are serialised store-wide,
// so fn observes no interleaved change of the same order.
func (s *OrderStore) Update(_ context.Context, id string, fn func(*order.Order) error) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	return o, nil
}
