// internal/storefront/application/notification_service.go
package application

import (
	"context"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/domain/port"
)

// NotificationService 维护"到货提醒"订阅，并在补货时
// 把订阅者名单交给外部推送协作方。
type NotificationService struct {
	subs       domain.NotificationRepository
	products   domain.ProductRepository
	dispatcher port.NotificationDispatcher
	audit      *AuditService
}

func NewNotificationService(
	subs domain.NotificationRepository,
	products domain.ProductRepository,
	dispatcher port.NotificationDispatcher,
	audit *AuditService,
) *NotificationService {
	return &NotificationService{subs: subs, products: products, dispatcher: dispatcher, audit: audit}
}

// Subscribe 幂等注册到货提醒。重复订阅返回既有记录和
// already=true，不是错误：唯一行不变式对派发扇出是承重的。
func (s *NotificationService) Subscribe(ctx context.Context, userID, productID int64) (*domain.ProductNotification, bool, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, false, err
	}
	return s.subs.Subscribe(ctx, userID, productID)
}

// DischargeForProduct 在商品从零库存恢复可售时调用：
// 原子地取出该商品的全部订阅并交给外部派发，返回收到通知的
// 用户列表。派发失败不回滚取出动作——到货通知是尽力而为的，
// 不是事务的一部分。
func (s *NotificationService) DischargeForProduct(ctx context.Context, actor domain.Actor, product *domain.Product) ([]int64, error) {
	subs, err := s.subs.TakeByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}

	userIDs := make([]int64, 0, len(subs))
	for _, sub := range subs {
		userIDs = append(userIDs, sub.UserID)
	}

	if s.dispatcher != nil {
		err := s.dispatcher.DispatchRestock(ctx, port.RestockDispatch{
			ProductID:   product.ID,
			ProductName: product.Name,
			UserIDs:     userIDs,
		})
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Int64("product_id", product.ID).
				Int("subscribers", len(userIDs)).
				Msg("Restock notification dispatch failed")
		}
	}

	s.audit.Record(ctx, actor, domain.ActionSendNotification, domain.TargetNotification, product.ID,
		domain.BroadcastDetails{ProductID: product.ID, SubscriberCount: len(userIDs)})

	logger.Ctx(ctx).Info().
		Int64("product_id", product.ID).
		Int("subscribers", len(userIDs)).
		Msg("Restock notifications discharged")
	return userIDs, nil
}
