// internal/storefront/domain/errors.go
package domain

import "errors"

// 领域层的哨兵错误。基础设施层负责把存储错误映射回这些哨兵，
// 接口层负责把它们翻译成对外的响应码。
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPromoNotFound    = errors.New("promo code not found")
	ErrPromoExists      = errors.New("promo code already exists")

	// ErrInsufficientStock 表示库存不足以完成本次扣减。
	// 扣减采用严格策略：宁可下单失败，也不把库存减成负数或静默超卖。
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	ErrMinimumOrderNotMet = errors.New("order subtotal below promo minimum")
	ErrUsageLimitExceeded = errors.New("promo usage limit exceeded")

	ErrInvalidStatusTransition = errors.New("invalid order status transition")

	ErrEmptyOrder = errors.New("order must contain at least one item")
)
