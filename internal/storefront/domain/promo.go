// internal/storefront/domain/promo.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 区分按比例折扣和定额立减两类优惠码。
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PromoCode 是一个优惠码的完整定义。
// Code 以规范化形式（大写、去首尾空白）存储并建唯一索引。
type PromoCode struct {
	Code            string
	DiscountType    DiscountType
	DiscountValue   decimal.Decimal
	MinimumOrder    decimal.Decimal
	MaximumDiscount *decimal.Decimal // 仅 percentage 类型有意义，nil 表示不封顶
	MaxUses         *int64           // nil 表示不限总次数
	UsedCount       int64
	MaxUsesPerUser  int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NormalizeCode 把用户输入的优惠码规范化成存储形式。
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CheckUsable 校验优惠码在给定小计和用户历史用量下能否使用。只读，不改计数。
func (p *PromoCode) CheckUsable(subtotal decimal.Decimal, userPriorUses int64) error {
	if !p.IsActive {
		return ErrPromoNotFound
	}
	if subtotal.LessThan(p.MinimumOrder) {
		return ErrMinimumOrderNotMet
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return ErrUsageLimitExceeded
	}
	if userPriorUses >= p.MaxUsesPerUser {
		return ErrUsageLimitExceeded
	}
	return nil
}

// Discount 计算该优惠码在 subtotal 上的折扣金额。
// percentage 按比例计算并受 MaximumDiscount 封顶；
// fixed 取 min(面值, 小计)，定额立减不会把订单减成负数。
func (p *PromoCode) Discount(subtotal decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case DiscountPercentage:
		d := subtotal.Mul(p.DiscountValue).Div(decimal.NewFromInt(100))
		if p.MaximumDiscount != nil && d.GreaterThan(*p.MaximumDiscount) {
			return *p.MaximumDiscount
		}
		return d
	case DiscountFixed:
		if p.DiscountValue.GreaterThan(subtotal) {
			return subtotal
		}
		return p.DiscountValue
	}
	return decimal.Zero
}
