// internal/storefront/infrastructure/memory/product.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bazaar/internal/storefront/domain"
)

// ProductStore 是 domain.ProductRepository 的进程内实现。
type ProductStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{nextID: 1, rows: make(map[int64]*domain.Product)}
}

func (s *ProductStore) Create(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.rows[p.ID] = cloneProduct(p)
	return nil
}

func (s *ProductStore) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (s *ProductStore) Update(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	s.rows[p.ID] = cloneProduct(p)
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *ProductStore) List(_ context.Context) ([]*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Product, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	cp := *p
	return &cp
}

// CategoryStore 是 domain.CategoryRepository 的进程内实现。
type CategoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.Category
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{nextID: 1, rows: make(map[int64]*domain.Category)}
}

func (s *CategoryStore) Create(_ context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextID
	s.nextID++
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	cp := *c
	s.rows[c.ID] = &cp
	return nil
}

func (s *CategoryStore) FindByID(_ context.Context, id int64) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *CategoryStore) Update(_ context.Context, c *domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[c.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	cp := *c
	s.rows[c.ID] = &cp
	return nil
}

func (s *CategoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *CategoryStore) List(_ context.Context) ([]*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Category, 0, len(s.rows))
	for _, c := range s.rows {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
