// internal/storefront/application/stock_service.go
package application

import (
	"context"
	"sort"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/domain/port"
)

// StockService 是库存的唯一写入方：任何对 Product.Stock 的变更
// 都必须经过这里，其他组件一律只读。
//
// 扣减采用严格策略：在商品锁内读出当前库存，stock < quantity 时
// 返回 ErrInsufficientStock，不做截断。N 个并发请求抢最后一件时
// 至多一个成功，事后库存恰好为 0。
type StockService struct {
	products domain.ProductRepository
	locker   port.ProductLocker
}

func NewStockService(products domain.ProductRepository, locker port.ProductLocker) *StockService {
	return &StockService{products: products, locker: locker}
}

// Decrease 扣减单个商品的库存。
func (s *StockService) Decrease(ctx context.Context, productID, quantity int64) (*domain.Product, error) {
	unlock, err := s.locker.Lock(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.decreaseHeld(ctx, productID, quantity)
}

// decreaseHeld 在调用方已持有商品锁的前提下执行读-比较-写。
// 订单创建会先通过 WithProducts 锁住全部涉及商品，再逐行调用这里。
func (s *StockService) decreaseHeld(ctx context.Context, productID, quantity int64) (*domain.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := p.DecreaseStock(quantity); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	if p.Stock == 0 {
		logger.Ctx(ctx).Info().
			Int64("product_id", p.ID).
			Msg("Product sold out, availability switched off")
	}
	return p, nil
}

// SetStock 把商品库存重置为 newStock（管理端补货/盘点）。
// 返回更新后的商品和是否发生 0→正 的补货跃迁；
// 跃迁为 true 时调用方必须走到货通知的派发路径。
func (s *StockService) SetStock(ctx context.Context, productID, newStock int64) (*domain.Product, bool, error) {
	unlock, err := s.locker.Lock(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	defer unlock()
	return s.setStockHeld(ctx, productID, newStock)
}

func (s *StockService) setStockHeld(ctx context.Context, productID, newStock int64) (*domain.Product, bool, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, false, err
	}
	restocked := p.SetStock(newStock)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, false, err
	}
	return p, restocked, nil
}

// WithProducts 按 productID 升序依次取锁后执行 fn，结束后逆序释放。
// 固定的加锁顺序让两个商品集合有交集的并发订单不会互相死锁。
func (s *StockService) WithProducts(ctx context.Context, productIDs []int64, fn func(ctx context.Context) error) error {
	ids := make([]int64, 0, len(productIDs))
	seen := make(map[int64]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	unlocks := make([]func(), 0, len(ids))
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()
	for _, id := range ids {
		unlock, err := s.locker.Lock(ctx, id)
		if err != nil {
			return err
		}
		unlocks = append(unlocks, unlock)
	}
	return fn(ctx)
}
