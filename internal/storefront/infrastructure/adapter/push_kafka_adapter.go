// internal/storefront/infrastructure/adapter/push_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"bazaar/internal/pkg/mq"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/domain/port"
)

// KafkaDispatcher 是 port.NotificationDispatcher 的 Kafka 实现：
// 把到货通知和订单状态事件发给外部推送协作方（push-gateway 消费）。
type KafkaDispatcher struct {
	restockWriter *kafka.Writer
	orderWriter   *kafka.Writer
}

func NewKafkaDispatcher(restockWriter, orderWriter *kafka.Writer) *KafkaDispatcher {
	return &KafkaDispatcher{restockWriter: restockWriter, orderWriter: orderWriter}
}

// RestockEvent 是发往 restock topic 的消息体，一个订阅者一条，
// 方便推送端按用户路由到持有其连接的网关节点。
type RestockEvent struct {
	EventID     string    `json:"eventId"`
	UserID      int64     `json:"userId"`
	ProductID   int64     `json:"productId"`
	ProductName string    `json:"productName"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// OrderStatusEvent 是订单状态变更后发给订单归属用户的消息体。
type OrderStatusEvent struct {
	EventID    string    `json:"eventId"`
	UserID     int64     `json:"userId"`
	OrderID    int64     `json:"orderId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (d *KafkaDispatcher) DispatchRestock(ctx context.Context, dispatch port.RestockDispatch) error {
	for _, userID := range dispatch.UserIDs {
		event := RestockEvent{
			EventID:     uuid.New().String(),
			UserID:      userID,
			ProductID:   dispatch.ProductID,
			ProductName: dispatch.ProductName,
			OccurredAt:  time.Now(),
		}
		value, err := json.Marshal(event)
		if err != nil {
			return errors.Wrap(err, "marshal restock event")
		}
		key := []byte(strconv.FormatInt(userID, 10))
		if err := mq.ProduceMessage(ctx, d.restockWriter, key, value); err != nil {
			return errors.Wrapf(err, "produce restock event for user %d", userID)
		}
	}
	return nil
}

func (d *KafkaDispatcher) DispatchOrderStatus(ctx context.Context, order *domain.Order) error {
	event := OrderStatusEvent{
		EventID:    uuid.New().String(),
		UserID:     order.UserID,
		OrderID:    order.ID,
		Status:     string(order.Status),
		OccurredAt: time.Now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order status event")
	}
	key := []byte(strconv.FormatInt(order.UserID, 10))
	return mq.ProduceMessage(ctx, d.orderWriter, key, value)
}

// Close 关闭底层的 Kafka writer。
func (d *KafkaDispatcher) Close() error {
	if err := d.restockWriter.Close(); err != nil {
		return err
	}
	return d.orderWriter.Close()
}

var _ port.NotificationDispatcher = (*KafkaDispatcher)(nil)
