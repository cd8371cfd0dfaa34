package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"bazaar/internal/storefront/domain"
)

func TestCreateProductAvailabilityFollowsInitialStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	inStock, err := env.catalog.CreateProduct(ctx, testActor, ProductInput{Name: "A", Price: mustDecimal("10.00"), Stock: 5})
	require.NoError(t, err)
	assert.True(t, inStock.IsAvailable)

	outOfStock, err := env.catalog.CreateProduct(ctx, testActor, ProductInput{Name: "B", Price: mustDecimal("10.00"), Stock: 0})
	require.NoError(t, err)
	assert.False(t, outOfStock.IsAvailable)

	logs, err := env.audit.Query(ctx, domain.AuditFilter{Action: domain.ActionCreateProduct})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestUpdateProductRecordsBeforeAfter(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p, err := env.catalog.CreateProduct(ctx, testActor, ProductInput{Name: "A", Price: mustDecimal("10.00"), Stock: 5})
	require.NoError(t, err)

	_, err = env.catalog.UpdateProduct(ctx, testActor, p.ID, ProductInput{Name: "A+", Price: mustDecimal("12.00"), Stock: 5})
	require.NoError(t, err)

	logs, err := env.audit.Query(ctx, domain.AuditFilter{Action: domain.ActionUpdateProduct})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	details, ok := logs[0].Details.(domain.ProductUpdateDetails)
	require.True(t, ok)
	assert.Equal(t, "A", details.Before.Name)
	assert.Equal(t, "A+", details.After.Name)
	assert.Equal(t, "12", details.After.Price)
}

func TestRestockThroughUpdateDischargesNotifications(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p, err := env.catalog.CreateProduct(ctx, testActor, ProductInput{Name: "B", Price: mustDecimal("30.00"), Stock: 0})
	require.NoError(t, err)

	_, _, err = env.notifications.Subscribe(ctx, 42, p.ID)
	require.NoError(t, err)

	updated, err := env.catalog.UpdateProduct(ctx, testActor, p.ID, ProductInput{Name: "B", Price: mustDecimal("30.00"), Stock: 7})
	require.NoError(t, err)
	assert.True(t, updated.IsAvailable)
	assert.Equal(t, int64(7), updated.Stock)

	// 0→正 跃迁触发了到货通知派发
	require.Len(t, env.dispatcher.restocks, 1)
	assert.Equal(t, []int64{42}, env.dispatcher.restocks[0].UserIDs)

	// 再次补货（正→正）不再派发
	_, err = env.catalog.UpdateProduct(ctx, testActor, p.ID, ProductInput{Name: "B", Price: mustDecimal("30.00"), Stock: 9})
	require.NoError(t, err)
	assert.Len(t, env.dispatcher.restocks, 1)
}

// failingNotificationRepo 用于模拟订阅存储故障。
type failingNotificationRepo struct {
	err error
}

func (r *failingNotificationRepo) Subscribe(context.Context, int64, int64) (*domain.ProductNotification, bool, error) {
	return nil, false, r.err
}

func (r *failingNotificationRepo) TakeByProduct(context.Context, int64) ([]*domain.ProductNotification, error) {
	return nil, r.err
}

func (r *failingNotificationRepo) CountByProduct(context.Context, int64) (int64, error) {
	return 0, r.err
}

func TestUpdateProductSurvivesDischargeFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// 商品更新走的是故障订阅存储，取订阅名单一定失败
	broken := NewNotificationService(&failingNotificationRepo{err: errors.New("store down")}, env.store.Products, env.dispatcher, env.audit)
	catalog := NewCatalogService(env.store.Products, env.store.Categories, env.stock, broken, env.audit, otel.Tracer("test"))

	p, err := catalog.CreateProduct(ctx, testActor, ProductInput{Name: "C", Price: mustDecimal("15.00"), Stock: 0})
	require.NoError(t, err)

	// 0→正 跃迁的派发失败不反悔已落库的更新
	updated, err := catalog.UpdateProduct(ctx, testActor, p.ID, ProductInput{Name: "C", Price: mustDecimal("15.00"), Stock: 4})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, int64(4), updated.Stock)
	assert.True(t, updated.IsAvailable)

	stored, err := env.store.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Stock)

	logs, err := env.audit.Query(ctx, domain.AuditFilter{Action: domain.ActionUpdateProduct})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestDeleteProductKeepsOrderHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	p, err := env.catalog.CreateProduct(ctx, testActor, ProductInput{Name: "A", Price: mustDecimal("10.00"), Stock: 5})
	require.NoError(t, err)
	order, err := env.orders.Create(ctx, domain.OrderDraft{UserID: 1}, []domain.OrderLine{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	require.NoError(t, env.catalog.DeleteProduct(ctx, testActor, p.ID))

	found, err := env.orders.Get(ctx, 1, order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "A", found.Items[0].ProductName)

	logs, err := env.audit.Query(ctx, domain.AuditFilter{Action: domain.ActionDeleteProduct})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	details, ok := logs[0].Details.(domain.ProductDeleteDetails)
	require.True(t, ok)
	assert.Equal(t, "A", details.Name)
}

func TestCategoryLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c, err := env.catalog.CreateCategory(ctx, testActor, "Hardware")
	require.NoError(t, err)

	renamed, err := env.catalog.UpdateCategory(ctx, testActor, c.ID, "Tools")
	require.NoError(t, err)
	assert.Equal(t, "Tools", renamed.Name)

	require.NoError(t, env.catalog.DeleteCategory(ctx, testActor, c.ID))
	err = env.catalog.DeleteCategory(ctx, testActor, c.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	logs, err := env.audit.Query(ctx, domain.AuditFilter{TargetType: domain.TargetCategory})
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}
