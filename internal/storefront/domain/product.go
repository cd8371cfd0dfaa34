// internal/storefront/domain/product.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 是商品聚合的根实体。
// Price 使用定点小数，对外序列化为字符串，避免浮点漂移。
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	IsAvailable bool
	CategoryID  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DecreaseStock 执行一次严格的库存扣减。
// 库存不足时返回 ErrInsufficientStock，绝不把库存截断到零；
// 扣减恰好到 0 时在同一次变更中关闭可售标记，这是唯一允许
// 因库存原因翻转 IsAvailable 的代码路径。
// 调用方必须已经持有该商品的串行化锁。
func (p *Product) DecreaseStock(quantity int64) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if p.Stock < quantity {
		return ErrInsufficientStock
	}
	p.Stock -= quantity
	if p.Stock == 0 {
		p.IsAvailable = false
	}
	p.UpdatedAt = time.Now()
	return nil
}

// SetStock 把库存重置为 newStock（管理员补货/盘点路径）。
// 返回值表示是否发生了 0→正 的补货跃迁，该跃迁是触发
// 到货通知派发的唯一信号。
func (p *Product) SetStock(newStock int64) bool {
	restocked := p.Stock == 0 && newStock > 0
	p.Stock = newStock
	if newStock == 0 {
		p.IsAvailable = false
	} else {
		p.IsAvailable = true
	}
	p.UpdatedAt = time.Now()
	return restocked
}

// Category 是商品目录下的分类，只有管理端会改动它。
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
