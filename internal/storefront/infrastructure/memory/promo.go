// internal/storefront/infrastructure/memory/promo.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bazaar/internal/storefront/domain"
)

// PromoStore 是 domain.PromoRepository 的进程内实现，按规范化后的码值索引。
type PromoStore struct {
	mu   sync.Mutex
	rows map[string]*domain.PromoCode
}

func NewPromoStore() *PromoStore {
	return &PromoStore{rows: make(map[string]*domain.PromoCode)}
}

func (s *PromoStore) Create(_ context.Context, p *domain.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Code = domain.NormalizeCode(p.Code)
	if _, ok := s.rows[p.Code]; ok {
		return domain.ErrPromoExists
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.rows[p.Code] = clonePromo(p)
	return nil
}

func (s *PromoStore) FindByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.rows[domain.NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	return clonePromo(p), nil
}

func (s *PromoStore) Update(_ context.Context, p *domain.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := domain.NormalizeCode(p.Code)
	old, ok := s.rows[code]
	if !ok {
		return domain.ErrPromoNotFound
	}
	p.Code = code
	// used_count 与 created_at 不属于管理端可编辑字段，沿用既有行的值，
	// 否则一次编辑就会把核销计数清零、绕开 max_uses 上限。
	p.UsedCount = old.UsedCount
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = time.Now()
	s.rows[code] = clonePromo(p)
	return nil
}

func (s *PromoStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code = domain.NormalizeCode(code)
	if _, ok := s.rows[code]; !ok {
		return domain.ErrPromoNotFound
	}
	delete(s.rows, code)
	return nil
}

func (s *PromoStore) List(_ context.Context) ([]*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.PromoCode, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, clonePromo(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Redeem 在一次加锁内完成"检查上限再加一"，并发核销下
// used_count 永不超过 max_uses。
func (s *PromoStore) Redeem(_ context.Context, code string) (*domain.PromoCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.rows[domain.NormalizeCode(code)]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return nil, domain.ErrUsageLimitExceeded
	}
	p.UsedCount++
	p.UpdatedAt = time.Now()
	return clonePromo(p), nil
}

func clonePromo(p *domain.PromoCode) *domain.PromoCode {
	cp := *p
	if p.MaximumDiscount != nil {
		m := *p.MaximumDiscount
		cp.MaximumDiscount = &m
	}
	if p.MaxUses != nil {
		m := *p.MaxUses
		cp.MaxUses = &m
	}
	return &cp
}
