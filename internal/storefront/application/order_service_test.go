package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/storefront/domain"
)

func TestCreateOrderFromCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := env.seedProduct("Widget", "10.00", 3)
	_, err := env.cart.Add(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	order, err := env.orders.CreateFromCart(ctx, domain.OrderDraft{UserID: 1, Phone: "13800138000", Address: "1 Market Street"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "20", order.TotalAmount.String())
	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Widget", item.ProductName)
	assert.Equal(t, "10", item.ProductPrice.String())
	assert.Equal(t, int64(2), item.Quantity)
	assert.True(t, item.Subtotal.Equal(mustDecimal("20.00")))

	// 库存扣减、购物车清空
	after, err := env.store.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), after.Stock)
	assert.True(t, after.IsAvailable)

	lines, err := env.cart.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCreateOrderSnapshotsSurviveProductChanges(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := env.seedProduct("Widget", "10.00", 5)
	order, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	// 商品改名改价后，历史订单的快照不动
	p.Name = "Renamed"
	p.Price = mustDecimal("99.99")
	require.NoError(t, env.store.Products.Update(ctx, p))

	found, err := env.orders.Get(ctx, 1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", found.Items[0].ProductName)
	assert.True(t, found.Items[0].ProductPrice.Equal(mustDecimal("10.00")))
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.seedProduct("A", "10.00", 5)
	b := env.seedProduct("B", "20.00", 1)

	_, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 3},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// 任何一行失败，全部商品的库存都原封不动
	afterA, err := env.store.Products.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), afterA.Stock)
	afterB, err := env.store.Products.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), afterB.Stock)
}

func TestCreateOrderUnknownProductLeavesNoTrace(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.seedProduct("A", "10.00", 5)
	_, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{
		{ProductID: a.ID, Quantity: 1},
		{ProductID: 999, Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	after, err := env.store.Products.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), after.Stock)

	orders, err := env.orders.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderAggregatesDuplicateLines(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := env.seedProduct("A", "10.00", 3)
	// 两行同一商品合计 4 > 库存 3，整体拒绝
	_, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{
		{ProductID: p.ID, Quantity: 2},
		{ProductID: p.ID, Quantity: 2},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := env.seedProduct("A", "10.00", 3)

	_, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyOrder)

	_, err = env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{{ProductID: p.ID, Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestCreateOrderLastUnitSwitchesAvailabilityOff(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := env.seedProduct("A", "10.00", 2)
	_, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{{ProductID: p.ID, Quantity: 2}})
	require.NoError(t, err)

	after, err := env.store.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), after.Stock)
	assert.False(t, after.IsAvailable)
}

func TestUpdateStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := env.seedProduct("A", "10.00", 5)
	order, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	updated, err := env.orders.UpdateStatus(ctx, testActor, order.ID, domain.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, updated.Status)

	// 审计记录了前后状态
	logs, err := env.audit.Query(ctx, domain.AuditFilter{Action: domain.ActionUpdateOrderStatus})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	details, ok := logs[0].Details.(domain.OrderStatusDetails)
	require.True(t, ok)
	assert.Equal(t, "pending", details.From)
	assert.Equal(t, "processing", details.To)

	// 订单归属用户收到状态变更推送
	require.Len(t, env.dispatcher.statuses, 1)
	assert.Equal(t, order.ID, env.dispatcher.statuses[0].ID)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := env.seedProduct("A", "10.00", 5)
	order, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = env.orders.UpdateStatus(ctx, testActor, order.ID, domain.StatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	found, err := env.orders.Get(ctx, 1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, found.Status)
}

func TestUpdateStatusMissingOrderLeavesNoAudit(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.orders.UpdateStatus(ctx, testActor, 404, domain.StatusProcessing)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Zero(t, env.store.Audit.Len())
}

func TestGetOrderOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p := env.seedProduct("A", "10.00", 5)
	order, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	// 他人读取按不存在处理
	_, err = env.orders.Get(ctx, 2, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	found, err := env.orders.Get(ctx, 1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
}
