// internal/storefront/infrastructure/memory/audit.go
package memory

import (
	"context"
	"sync"
	"time"

	"bazaar/internal/storefront/domain"
)

// AuditStore 是 domain.AuditRepository 的进程内实现：
// 单调 id 分配加尾部追加，条目写入后不再变更。
type AuditStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []*domain.AdminLog
}

func NewAuditStore() *AuditStore {
	return &AuditStore{nextID: 1}
}

func (s *AuditStore) Append(_ context.Context, entry *domain.AdminLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.ID = s.nextID
	s.nextID++
	entry.Timestamp = time.Now()
	cp := *entry
	s.rows = append(s.rows, &cp)
	return nil
}

// Query 按过滤条件 AND 组合，从尾部向前遍历即天然按时间倒序。
func (s *AuditStore) Query(_ context.Context, f domain.AuditFilter) ([]*domain.AdminLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = domain.DefaultAuditLimit
	}

	var out []*domain.AdminLog
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.rows[i]
		if f.Action != "" && e.Action != f.Action {
			continue
		}
		if f.AdminUserID != 0 && e.AdminUserID != f.AdminUserID {
			continue
		}
		if f.TargetType != "" && e.TargetType != f.TargetType {
			continue
		}
		if !f.From.IsZero() && e.Timestamp.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && e.Timestamp.After(f.To) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// Len 返回当前条目总数，只用于测试断言。
func (s *AuditStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
