// internal/storefront/infrastructure/memory/cart.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bazaar/internal/storefront/domain"
)

// CartStore 是 domain.CartRepository 的进程内实现。
// byPair 索引保证 (userID, productID) 至多一行。
type CartStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.CartItem
	byPair map[pairKey]int64
}

func NewCartStore() *CartStore {
	return &CartStore{
		nextID: 1,
		rows:   make(map[int64]*domain.CartItem),
		byPair: make(map[pairKey]int64),
	}
}

// Add 在一次加锁内完成"查找或新建"，任意交错的并发调用
// 都不会给同一 (userID, productID) 留下第二行。
func (s *CartStore) Add(_ context.Context, userID, productID, quantity int64) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{userID, productID}
	if id, ok := s.byPair[key]; ok {
		item := s.rows[id]
		item.Quantity += quantity
		item.UpdatedAt = time.Now()
		return cloneCartItem(item), nil
	}

	now := time.Now()
	item := &domain.CartItem{
		ID:        s.nextID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextID++
	s.rows[item.ID] = item
	s.byPair[key] = item.ID
	return cloneCartItem(item), nil
}

func (s *CartStore) FindByID(_ context.Context, id int64) (*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	return cloneCartItem(item), nil
}

func (s *CartStore) UpdateQuantity(_ context.Context, id, quantity int64) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	item.Quantity = quantity
	item.UpdatedAt = time.Now()
	return cloneCartItem(item), nil
}

func (s *CartStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.rows[id]
	if !ok {
		return domain.ErrCartItemNotFound
	}
	delete(s.byPair, pairKey{item.UserID, item.ProductID})
	delete(s.rows, id)
	return nil
}

func (s *CartStore) DeleteByUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.rows {
		if item.UserID == userID {
			delete(s.byPair, pairKey{item.UserID, item.ProductID})
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *CartStore) ListByUser(_ context.Context, userID int64) ([]*domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.CartItem
	for _, item := range s.rows {
		if item.UserID == userID {
			out = append(out, cloneCartItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneCartItem(item *domain.CartItem) *domain.CartItem {
	cp := *item
	return &cp
}
