package application

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"

	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/domain/port"
	"bazaar/internal/storefront/infrastructure/adapter"
	"bazaar/internal/storefront/infrastructure/memory"
)

var testActor = domain.Actor{ID: 1, Name: "admin"}

// captureDispatcher 记录全部派发调用，供测试断言。
type captureDispatcher struct {
	mu       sync.Mutex
	restocks []port.RestockDispatch
	statuses []*domain.Order
	fail     error
}

func (d *captureDispatcher) DispatchRestock(_ context.Context, dispatch port.RestockDispatch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return d.fail
	}
	d.restocks = append(d.restocks, dispatch)
	return nil
}

func (d *captureDispatcher) DispatchOrderStatus(_ context.Context, order *domain.Order) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return d.fail
	}
	d.statuses = append(d.statuses, order)
	return nil
}

// testEnv 把全套服务装配在进程内仓库上。
type testEnv struct {
	store      *memory.Store
	dispatcher *captureDispatcher

	audit         *AuditService
	stock         *StockService
	cart          *CartService
	notifications *NotificationService
	catalog       *CatalogService
	orders        *OrderService
	promos        *PromoService
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	dispatcher := &captureDispatcher{}
	tracer := otel.Tracer("test")

	audit := NewAuditService(store.Audit)
	stock := NewStockService(store.Products, adapter.NewLocalProductLocker())
	cart := NewCartService(store.Carts, store.Products)
	notifications := NewNotificationService(store.Notifications, store.Products, dispatcher, audit)
	catalog := NewCatalogService(store.Products, store.Categories, stock, notifications, audit, tracer)
	orders := NewOrderService(store.Orders, store.Products, cart, stock, audit, dispatcher, tracer)
	promos := NewPromoService(store.Promos, audit)

	return &testEnv{
		store: store, dispatcher: dispatcher,
		audit: audit, stock: stock, cart: cart,
		notifications: notifications, catalog: catalog,
		orders: orders, promos: promos,
	}
}

// seedProduct 直接向仓库写入一个商品。
func (env *testEnv) seedProduct(name, price string, stock int64) *domain.Product {
	p := &domain.Product{
		Name:        name,
		Price:       mustDecimal(price),
		Stock:       stock,
		IsAvailable: stock > 0,
	}
	if err := env.store.Products.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
