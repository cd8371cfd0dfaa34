// internal/storefront/application/cart_service.go
package application

import (
	"context"
	"errors"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/storefront/domain"
)

// CartService 维护用户购物车。
// 每个 (userID, productID) 至多一行的不变式由仓储的原子 Add 保证。
type CartService struct {
	carts    domain.CartRepository
	products domain.ProductRepository
}

func NewCartService(carts domain.CartRepository, products domain.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Add 向购物车加货：已有行则数量累加，否则建新行。
// 商品不存在时失败；可售性在这里不检查，下单时才强制。
func (s *CartService) Add(ctx context.Context, userID, productID, quantity int64) (*domain.CartItem, error) {
	if quantity < 1 {
		quantity = 1
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.carts.Add(ctx, userID, productID, quantity)
}

// UpdateQuantity 把购物车行的数量改成 quantity（必须 >= 1）。
// 数量 0 被拒绝：想清掉一行应当调用 Remove，"改成零"和"删除"
// 是两种不同的、各自可审计的意图，不做隐式转换。
// 行不属于 userID 时按不存在处理，不向调用方泄露行的存在性。
func (s *CartService) UpdateQuantity(ctx context.Context, userID, cartItemID, quantity int64) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	item, err := s.carts.FindByID(ctx, cartItemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, domain.ErrCartItemNotFound
	}
	return s.carts.UpdateQuantity(ctx, cartItemID, quantity)
}

// Remove 删除购物车行。行不存在或不属于 userID 时是空操作，
// 防止跨用户删除，也不暴露他人行的存在。
func (s *CartService) Remove(ctx context.Context, userID, cartItemID int64) error {
	item, err := s.carts.FindByID(ctx, cartItemID)
	if err != nil {
		if errors.Is(err, domain.ErrCartItemNotFound) {
			return nil
		}
		return err
	}
	if item.UserID != userID {
		return nil
	}
	return s.carts.Delete(ctx, cartItemID)
}

// Clear 清空用户购物车，只作为下单成功的副作用被调用。
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.carts.DeleteByUser(ctx, userID)
}

// List 列出购物车，并把每行和商品的实时状态联接起来：
// 价格、可售性都是当前值而非冻结值，调用方可以在结算前
// 发现漂移。商品已被删除的行 Product 为 nil。
func (s *CartService) List(ctx context.Context, userID int64) ([]*domain.CartLine, error) {
	items, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]*domain.CartLine, 0, len(items))
	for _, item := range items {
		p, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if !errors.Is(err, domain.ErrProductNotFound) {
				return nil, err
			}
			logger.Ctx(ctx).Warn().
				Int64("cart_item_id", item.ID).
				Int64("product_id", item.ProductID).
				Msg("Cart line references a deleted product")
			p = nil
		}
		lines = append(lines, &domain.CartLine{Item: item, Product: p})
	}
	return lines, nil
}
