// internal/storefront/application/order_service.go
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/domain/port"
)

// OrderService 是订单台账：把购物车（或显式行清单）转换成
// 不可变的订单与行项目，并按行调用库存控制器扣减库存。
//
// 创建遵循"先验证、后提交"：涉及的全部商品锁先到手，任何一行
// 解析失败或库存不足都在触碰库存之前让整个调用失败，不存在
// 半个订单对其他调用方可见的窗口。
type OrderService struct {
	orders     domain.OrderRepository
	products   domain.ProductRepository
	cart       *CartService
	stock      *StockService
	audit      *AuditService
	dispatcher port.NotificationDispatcher
	tracer     trace.Tracer
}

func NewOrderService(
	orders domain.OrderRepository,
	products domain.ProductRepository,
	cart *CartService,
	stock *StockService,
	audit *AuditService,
	dispatcher port.NotificationDispatcher,
	tracer trace.Tracer,
) *OrderService {
	return &OrderService{
		orders: orders, products: products, cart: cart,
		stock: stock, audit: audit, dispatcher: dispatcher, tracer: tracer,
	}
}

// Create 用显式行清单创建订单。
func (s *OrderService) Create(ctx context.Context, draft domain.OrderDraft, lines []domain.OrderLine) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", draft.UserID),
		attribute.Int("order.lines", len(lines)),
	)

	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	productIDs := make([]int64, 0, len(lines))
	// 同一商品多行时按商品聚合数量做库存校验
	needed := make(map[int64]int64, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		productIDs = append(productIDs, line.ProductID)
		needed[line.ProductID] += line.Quantity
	}

	var order *domain.Order
	err := s.stock.WithProducts(ctx, productIDs, func(ctx context.Context) error {
		// 第一阶段：全部商品必须能解析且库存充足，否则一无所动。
		snapshots := make(map[int64]*domain.Product, len(needed))
		for id, qty := range needed {
			p, err := s.products.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if p.Stock < qty {
				return domain.ErrInsufficientStock
			}
			snapshots[id] = p
		}

		// 第二阶段：冻结名称/价格快照，整体落库，再逐商品扣减。
		total := decimal.Zero
		items := make([]*domain.OrderItem, 0, len(lines))
		for _, line := range lines {
			p := snapshots[line.ProductID]
			subtotal := p.Price.Mul(decimal.NewFromInt(line.Quantity))
			items = append(items, &domain.OrderItem{
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductPrice: p.Price,
				Quantity:     line.Quantity,
				Subtotal:     subtotal,
			})
			total = total.Add(subtotal)
		}
		order = &domain.Order{
			UserID:      draft.UserID,
			Status:      domain.StatusPending,
			TotalAmount: total,
			Phone:       draft.Phone,
			Address:     draft.Address,
			Items:       items,
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		for id, qty := range needed {
			if _, err := s.stock.decreaseHeld(ctx, id, qty); err != nil {
				// 校验和扣减在同一把锁内，这里失败意味着仓储本身出了问题
				logger.Ctx(ctx).Error().Err(err).
					Int64("order_id", order.ID).
					Int64("product_id", id).
					Msg("Stock decrement failed after order commit")
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.ID))
	logger.Ctx(ctx).Info().
		Int64("order_id", order.ID).
		Int64("user_id", order.UserID).
		Str("total", order.TotalAmount.String()).
		Msg("Order created")
	return order, nil
}

// CreateFromCart 把用户购物车整体转成订单，成功后清空购物车。
func (s *OrderService) CreateFromCart(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateFromCart")
	defer span.End()

	items, err := s.cart.carts.ListByUser(ctx, draft.UserID)
	if err != nil {
		return nil, err
	}
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := s.Create(ctx, draft, lines)
	if err != nil {
		return nil, err
	}
	if err := s.cart.Clear(ctx, draft.UserID); err != nil {
		// 订单已经落账，清购物车失败只记日志，由用户下次操作自愈
		logger.Ctx(ctx).Error().Err(err).
			Int64("user_id", draft.UserID).
			Msg("Failed to clear cart after order placement")
	}
	return order, nil
}

// UpdateStatus 管理员驱动的订单状态流转，受状态机约束。
// 订单不存在时直接返回 ErrOrderNotFound，不产生审计记录。
func (s *OrderService) UpdateStatus(ctx context.Context, actor domain.Actor, orderID int64, next domain.OrderStatus) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus")
	defer span.End()

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if err := order.TransitionTo(next); err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, domain.ActionUpdateOrderStatus, domain.TargetOrder, orderID,
		domain.OrderStatusDetails{From: string(from), To: string(next)})

	// 状态变更通知订单归属用户；派发是尽力而为，失败不影响主流程
	if s.dispatcher != nil {
		if err := s.dispatcher.DispatchOrderStatus(ctx, order); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Int64("order_id", orderID).
				Msg("Order status notification dispatch failed")
		}
	}
	return order, nil
}

// Get 按归属读取订单：订单不属于 userID 时按不存在处理。
func (s *OrderService) Get(ctx context.Context, userID, orderID int64) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListByUser 返回用户自己的订单，按创建时间倒序。
func (s *OrderService) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Search 管理端检索：term 匹配订单号子串、电话子串或地址的
// 忽略大小写子串；statusFilter 为 "all" 或空表示不过滤。
func (s *OrderService) Search(ctx context.Context, term string, statusFilter string) ([]*domain.Order, error) {
	return s.orders.Search(ctx, term, domain.OrderStatus(statusFilter))
}
