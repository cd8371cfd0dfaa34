// internal/storefront/domain/repository.go
package domain

import "context"

// 各实体的持久化接口。接口定义在领域层，由基础设施层实现：
// 参考实现是进程内实体仓库（memory），可持久化替换是 GORM + MySQL（gormrepo）。
// 每个仓储实现必须保证单个方法调用的原子性——跨方法的读改写序列
// 由应用层的锁（见 port.ProductLocker）负责串行化。

// ProductRepository 管理商品集合。
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Product, error)
}

// CartRepository 管理购物车行。
type CartRepository interface {
	// Add 原子地执行"查找或新建"：(userID, productID) 已有行则数量累加，
	// 否则建新行。唯一行不变式由这里保证，调用方不做先查后插。
	Add(ctx context.Context, userID, productID, quantity int64) (*CartItem, error)
	FindByID(ctx context.Context, id int64) (*CartItem, error)
	UpdateQuantity(ctx context.Context, id, quantity int64) (*CartItem, error)
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	ListByUser(ctx context.Context, userID int64) ([]*CartItem, error)
}

// OrderRepository 管理订单及其行项目。
type OrderRepository interface {
	// Create 把订单连同全部行项目一并落库，分配订单号与行号。
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id int64) (*Order, error)
	UpdateStatus(ctx context.Context, id int64, status OrderStatus) error
	// Search 按订单号子串、电话子串或地址子串（忽略大小写）过滤，
	// status 为空串或 "all" 表示不过滤状态；结果按创建时间倒序。
	Search(ctx context.Context, term string, status OrderStatus) ([]*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
}

// NotificationRepository 管理到货提醒订阅。
type NotificationRepository interface {
	// Subscribe 幂等注册：已存在时返回既有订阅和 already=true，不产生重复行。
	Subscribe(ctx context.Context, userID, productID int64) (sub *ProductNotification, already bool, err error)
	// TakeByProduct 原子地取出并删除某商品的全部订阅，返回取出的订阅列表。
	// 取出即视为已派发，下游推送失败不回滚（尽力而为，非事务性）。
	TakeByProduct(ctx context.Context, productID int64) ([]*ProductNotification, error)
	CountByProduct(ctx context.Context, productID int64) (int64, error)
}

// PromoRepository 管理优惠码。
type PromoRepository interface {
	Create(ctx context.Context, p *PromoCode) error
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	Update(ctx context.Context, p *PromoCode) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]*PromoCode, error)
	// Redeem 原子地把 used_count 加一。总量上限已满时返回
	// ErrUsageLimitExceeded 且计数不变；并发核销下计数永不超过 max_uses。
	Redeem(ctx context.Context, code string) (*PromoCode, error)
}

// CategoryRepository 管理商品分类。
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id int64) (*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*Category, error)
}

// AuditRepository 管理只追加的审计日志。
type AuditRepository interface {
	// Append 分配单调递增的 id 和服务端时间戳后追加，永不更新既有条目。
	Append(ctx context.Context, entry *AdminLog) error
	// Query 按 AuditFilter 的条件做 AND 过滤，按时间倒序返回，受 Limit 截断。
	Query(ctx context.Context, f AuditFilter) ([]*AdminLog, error)
}
