// internal/storefront/infrastructure/memory/store.go
package memory

// memory 是实体仓库的参考实现：每个实体集合一把互斥锁、
// 一个单调递增的 id 计数器。锁的粒度保证单个仓储调用内的
// 读改写是原子的；跨调用的串行化（库存 CAS）由应用层的
// ProductLocker 承担。
//
// 所有方法返回实体的副本。调用方只借用标识符，不持有
// 仓库内部的可变状态。

// Store 把全部实体仓库捆绑在一起，供装配时整体注入。
type Store struct {
	Products      *ProductStore
	Categories    *CategoryStore
	Carts         *CartStore
	Orders        *OrderStore
	Notifications *NotificationStore
	Promos        *PromoStore
	Audit         *AuditStore
}

// NewStore 创建一套空的进程内实体仓库。
func NewStore() *Store {
	return &Store{
		Products:      NewProductStore(),
		Categories:    NewCategoryStore(),
		Carts:         NewCartStore(),
		Orders:        NewOrderStore(),
		Notifications: NewNotificationStore(),
		Promos:        NewPromoStore(),
		Audit:         NewAuditStore(),
	}
}

// pairKey 是 (userID, productID) 复合键，购物车行与到货订阅
// 都以它建唯一索引。
type pairKey struct {
	userID    int64
	productID int64
}
