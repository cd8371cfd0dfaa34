// internal/storefront/infrastructure/memory/order.go
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bazaar/internal/storefront/domain"
)

// OrderStore 是 domain.OrderRepository 的进程内实现。
type OrderStore struct {
	mu         sync.Mutex
	nextID     int64
	nextItemID int64
	rows       map[int64]*domain.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{nextID: 1, nextItemID: 1, rows: make(map[int64]*domain.Order)}
}

// Create 在一次加锁内为订单和全部行项目分配 id 并整体落库，
// 不存在行项目可见而订单头不可见的中间状态。
func (s *OrderStore) Create(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.nextID
	s.nextID++
	now := time.Now()
	o.CreatedAt, o.UpdatedAt = now, now
	for _, item := range o.Items {
		item.ID = s.nextItemID
		s.nextItemID++
		item.OrderID = o.ID
	}
	s.rows[o.ID] = cloneOrder(o)
	return nil
}

func (s *OrderStore) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *OrderStore) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.rows[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (s *OrderStore) Search(_ context.Context, term string, status domain.OrderStatus) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term = strings.ToLower(strings.TrimSpace(term))
	var out []*domain.Order
	for _, o := range s.rows {
		if status != "" && status != "all" && o.Status != status {
			continue
		}
		if term != "" && !orderMatches(o, term) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *OrderStore) ListByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Order
	for _, o := range s.rows {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// orderMatches 实现检索语义：订单号子串、电话子串、
// 或地址的忽略大小写子串，三者任意命中即可。
func orderMatches(o *domain.Order, lowerTerm string) bool {
	if strings.Contains(strconv.FormatInt(o.ID, 10), lowerTerm) {
		return true
	}
	if strings.Contains(o.Phone, lowerTerm) {
		return true
	}
	return strings.Contains(strings.ToLower(o.Address), lowerTerm)
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]*domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		ic := *item
		cp.Items[i] = &ic
	}
	return &cp
}
