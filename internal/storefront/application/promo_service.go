// internal/storefront/application/promo_service.go
package application

import (
	"context"

	"github.com/shopspring/decimal"

	"bazaar/internal/storefront/domain"
)

// PromoService 负责优惠码的校验、核销和后台管理。
//
// Validate 是纯读：结账页可以反复调用而不产生任何用量。
// used_count 的加一发生在 Redeem——只在引用该码的订单真正创建
// 之后执行，放弃的结账不计用量。
type PromoService struct {
	promos domain.PromoRepository
	audit  *AuditService
}

func NewPromoService(promos domain.PromoRepository, audit *AuditService) *PromoService {
	return &PromoService{promos: promos, audit: audit}
}

// Validate 校验优惠码并计算折扣金额。
// userPriorUses 是该用户对这个码的历史成功用量，由调用方提供。
func (s *PromoService) Validate(ctx context.Context, code string, orderSubtotal decimal.Decimal, userID int64, userPriorUses int64) (decimal.Decimal, error) {
	promo, err := s.promos.FindByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	if err := promo.CheckUsable(orderSubtotal, userPriorUses); err != nil {
		return decimal.Zero, err
	}
	_ = userID // 用量统计由调用方按用户聚合后传入
	return promo.Discount(orderSubtotal), nil
}

// Redeem 显式核销：原子加一 used_count，并发下永不超过 max_uses。
func (s *PromoService) Redeem(ctx context.Context, code string) (*domain.PromoCode, error) {
	return s.promos.Redeem(ctx, code)
}

// Create 新建优惠码（管理端）。
func (s *PromoService) Create(ctx context.Context, actor domain.Actor, promo *domain.PromoCode) (*domain.PromoCode, error) {
	if err := s.promos.Create(ctx, promo); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, domain.ActionCreatePromoCode, domain.TargetPromoCode, 0,
		domain.PromoCodeDetails{Code: promo.Code, DiscountType: string(promo.DiscountType)})
	return promo, nil
}

// Update 编辑优惠码（管理端）。
func (s *PromoService) Update(ctx context.Context, actor domain.Actor, promo *domain.PromoCode) (*domain.PromoCode, error) {
	if err := s.promos.Update(ctx, promo); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, domain.ActionUpdatePromoCode, domain.TargetPromoCode, 0,
		domain.PromoCodeDetails{Code: promo.Code, DiscountType: string(promo.DiscountType)})
	return promo, nil
}

// Delete 删除优惠码（管理端）。
func (s *PromoService) Delete(ctx context.Context, actor domain.Actor, code string) error {
	normalized := domain.NormalizeCode(code)
	if err := s.promos.Delete(ctx, normalized); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, domain.ActionDeletePromoCode, domain.TargetPromoCode, 0,
		domain.PromoCodeDetails{Code: normalized})
	return nil
}

// List 列出全部优惠码（管理端）。
func (s *PromoService) List(ctx context.Context) ([]*domain.PromoCode, error) {
	return s.promos.List(ctx)
}
