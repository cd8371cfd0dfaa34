// internal/storefront/infrastructure/adapter/lock_local.go
package adapter

import (
	"context"
	"sync"

	"bazaar/internal/storefront/domain/port"
)

// LocalProductLocker 是 port.ProductLocker 的进程内实现：
// 每个商品一把互斥锁，锁对象按需创建后不回收。
// 单进程部署的默认选择；多进程换 ZkProductLocker。
type LocalProductLocker struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewLocalProductLocker() *LocalProductLocker {
	return &LocalProductLocker{locks: make(map[int64]*sync.Mutex)}
}

func (l *LocalProductLocker) Lock(_ context.Context, productID int64) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[productID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[productID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

var _ port.ProductLocker = (*LocalProductLocker)(nil)
