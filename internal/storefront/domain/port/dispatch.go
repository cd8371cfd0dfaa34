// internal/storefront/domain/port/dispatch.go
package port

import (
	"context"

	"bazaar/internal/storefront/domain"
)

// RestockDispatch 是一次到货通知派发的载荷：商品加上全部待通知用户。
type RestockDispatch struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	UserIDs     []int64 `json:"userIds"`
}

// NotificationDispatcher 把通知交给核心之外的推送协作方（Kafka → push-gateway）。
// 派发是尽力而为的：下游失败由下游自己重试，核心不回滚已完成的业务变更。
type NotificationDispatcher interface {
	// DispatchRestock 在商品补货后把订阅者列表交给外部推送。
	DispatchRestock(ctx context.Context, d RestockDispatch) error
	// DispatchOrderStatus 在管理员改动订单状态后通知订单归属用户。
	DispatchOrderStatus(ctx context.Context, order *domain.Order) error
}
