// internal/storefront/domain/order.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 定义了订单的生命周期状态。
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"    // 已创建，等待后台处理
	StatusProcessing OrderStatus = "processing" // 后台处理中（拣货、发货）
	StatusCompleted  OrderStatus = "completed"  // 已完成，终态
	StatusCancelled  OrderStatus = "cancelled"  // 已取消，终态
)

// statusTransitions 描述了合法的状态流转：
// pending → processing → completed；pending/processing → cancelled。
// completed 和 cancelled 是终态。
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// Valid 判断字符串是否是已知的订单状态。
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Order 是订单聚合的根实体。创建之后除 Status 外全部不可变。
type Order struct {
	ID          int64
	UserID      int64
	Status      OrderStatus
	TotalAmount decimal.Decimal
	Phone       string
	Address     string
	Items       []*OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem 是订单中的一行，携带下单时刻的商品名称与价格快照。
// 快照是刻意的反范式化：商品之后改名、改价甚至被删除，
// 历史订单的金额与描述都保持准确。不要把它"规范化"成纯引用。
type OrderItem struct {
	ID           int64
	OrderID      int64
	ProductID    int64
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int64
	Subtotal     decimal.Decimal
}

// OrderDraft 是创建订单时由调用方提供的头部信息。
type OrderDraft struct {
	UserID  int64
	Phone   string
	Address string
}

// OrderLine 是创建订单的输入行：只有商品引用和数量，
// 快照由订单台账在创建时刻补齐。
type OrderLine struct {
	ProductID int64
	Quantity  int64
}

// TransitionTo 尝试把订单流转到 next 状态。
// 非法流转（包括从终态出发的任何流转）返回 ErrInvalidStatusTransition。
func (o *Order) TransitionTo(next OrderStatus) error {
	if !next.Valid() {
		return ErrInvalidStatusTransition
	}
	for _, allowed := range statusTransitions[o.Status] {
		if next == allowed {
			o.Status = next
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrInvalidStatusTransition
}
