// internal/storefront/domain/port/locker.go
package port

import "context"

// ProductLocker 提供商品粒度的互斥。库存的读-比较-写必须在
// 同一把商品锁内完成，否则两个并发订单可以同时读到 stock=1
// 并双双扣减，静默超卖一件。
//
// 进程内部署用互斥表实现；多进程部署替换为 ZooKeeper 分布式锁。
type ProductLocker interface {
	// Lock 取得 productID 的互斥锁，返回对应的解锁函数。
	// 跨多个商品加锁的调用方必须按 productID 升序逐个获取，避免死锁。
	Lock(ctx context.Context, productID int64) (unlock func(), err error)
}
