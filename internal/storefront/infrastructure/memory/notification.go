// internal/storefront/infrastructure/memory/notification.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bazaar/internal/storefront/domain"
)

// NotificationStore 是 domain.NotificationRepository 的进程内实现。
type NotificationStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*domain.ProductNotification
	byPair map[pairKey]int64
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		nextID: 1,
		rows:   make(map[int64]*domain.ProductNotification),
		byPair: make(map[pairKey]int64),
	}
}

// Subscribe 幂等注册：同一 (userID, productID) 的第二次订阅
// 返回既有行和 already=true，仓库里永远只有一行。
func (s *NotificationStore) Subscribe(_ context.Context, userID, productID int64) (*domain.ProductNotification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{userID, productID}
	if id, ok := s.byPair[key]; ok {
		cp := *s.rows[id]
		return &cp, true, nil
	}

	sub := &domain.ProductNotification{
		ID:        s.nextID,
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
	s.nextID++
	s.rows[sub.ID] = sub
	s.byPair[key] = sub.ID
	cp := *sub
	return &cp, false, nil
}

// TakeByProduct 取出并删除某商品的全部订阅，读与删在同一临界区内，
// 并发补货不会把同一批订阅者派发两次。
func (s *NotificationStore) TakeByProduct(_ context.Context, productID int64) ([]*domain.ProductNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.ProductNotification
	for id, sub := range s.rows {
		if sub.ProductID == productID {
			cp := *sub
			out = append(out, &cp)
			delete(s.byPair, pairKey{sub.UserID, sub.ProductID})
			delete(s.rows, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *NotificationStore) CountByProduct(_ context.Context, productID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, sub := range s.rows {
		if sub.ProductID == productID {
			n++
		}
	}
	return n, nil
}
