// internal/storefront/domain/cart.go
package domain

import "time"

// CartItem 是购物车中的一行。
// 不变式：每个 (UserID, ProductID) 至多一行，Quantity 永远 >= 1；
// 数量被减到 0 意味着删除该行，而不是留下一条 0 行。
type CartItem struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine 是购物车行与当前商品状态的联接视图。
// Product 取的是实时快照（价格、可售状态都是最新值，不是冻结值），
// 调用方据此可以在结算前发现价格或可售性漂移。
// 商品已被删除时 Product 为 nil。
type CartLine struct {
	Item    *CartItem
	Product *Product
}
