package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"bazaar/internal/storefront/application"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/infrastructure/adapter"
	"bazaar/internal/storefront/infrastructure/memory"
)

// newTestMux 在进程内仓库上装配完整的路由表。
func newTestMux(t *testing.T) (*http.ServeMux, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tracer := otel.Tracer("test")

	audit := application.NewAuditService(store.Audit)
	stock := application.NewStockService(store.Products, adapter.NewLocalProductLocker())
	cart := application.NewCartService(store.Carts, store.Products)
	notifications := application.NewNotificationService(store.Notifications, store.Products, nil, audit)
	catalog := application.NewCatalogService(store.Products, store.Categories, stock, notifications, audit, tracer)
	orders := application.NewOrderService(store.Orders, store.Products, cart, stock, audit, nil, tracer)
	promos := application.NewPromoService(store.Promos, audit)

	mux := http.NewServeMux()
	NewStorefrontHandler(cart, orders, notifications, promos, catalog, nil).RegisterRoutes(mux)
	NewAdminHandler(catalog, orders, promos, audit, nil).RegisterRoutes(mux)
	return mux, store
}

func seedProduct(t *testing.T, store *memory.Store, name, price string, stock int64) *domain.Product {
	t.Helper()
	d, err := decimal.NewFromString(price)
	require.NoError(t, err)
	p := &domain.Product{Name: name, Price: d, Stock: stock, IsAvailable: stock > 0}
	require.NoError(t, store.Products.Create(context.Background(), p))
	return p
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutEndpoint(t *testing.T) {
	mux, store := newTestMux(t)
	p := seedProduct(t, store, "Widget", "10.00", 3)

	rec := doJSON(t, mux, http.MethodPost, "/api/cart",
		`{"userId":1,"productId":`+jsonInt(p.ID)+`,"quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/orders",
		`{"userId":1,"phone":"13800138000","address":"1 Market Street","fromCart":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var order struct {
		ID          int64  `json:"id"`
		Status      string `json:"status"`
		TotalAmount string `json:"totalAmount"`
		Items       []struct {
			Subtotal string `json:"subtotal"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "20", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "20", order.Items[0].Subtotal)

	// 购物车已清空
	rec = doJSON(t, mux, http.MethodGet, "/api/cart?userId=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCheckoutInsufficientStockIs409(t *testing.T) {
	mux, store := newTestMux(t)
	p := seedProduct(t, store, "Widget", "10.00", 1)

	rec := doJSON(t, mux, http.MethodPost, "/api/orders",
		`{"userId":1,"items":[{"productId":`+jsonInt(p.ID)+`,"quantity":5}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderOwnershipIs404(t *testing.T) {
	mux, store := newTestMux(t)
	p := seedProduct(t, store, "Widget", "10.00", 3)

	rec := doJSON(t, mux, http.MethodPost, "/api/orders",
		`{"userId":1,"items":[{"productId":`+jsonInt(p.ID)+`,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	rec = doJSON(t, mux, http.MethodGet, "/api/orders/"+jsonInt(order.ID)+"?userId=2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPromoValidateEndpoint(t *testing.T) {
	mux, store := newTestMux(t)
	maximum := decimal.NewFromInt(50)
	require.NoError(t, store.Promos.Create(context.Background(), &domain.PromoCode{
		Code:            "SAVE20",
		DiscountType:    domain.DiscountPercentage,
		DiscountValue:   decimal.NewFromInt(20),
		MinimumOrder:    decimal.NewFromInt(100),
		MaximumDiscount: &maximum,
		MaxUsesPerUser:  1,
		IsActive:        true,
	}))

	rec := doJSON(t, mux, http.MethodPost, "/api/promo/validate",
		`{"code":"save20","subtotal":"1000","userId":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "50", out["discount"])

	// 低于门槛
	rec = doJSON(t, mux, http.MethodPost, "/api/promo/validate",
		`{"code":"save20","subtotal":"99","userId":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// 不存在的码
	rec = doJSON(t, mux, http.MethodPost, "/api/promo/validate",
		`{"code":"nope","subtotal":"1000","userId":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminOrderStatusEndpoint(t *testing.T) {
	mux, store := newTestMux(t)
	p := seedProduct(t, store, "Widget", "10.00", 3)

	rec := doJSON(t, mux, http.MethodPost, "/api/orders",
		`{"userId":1,"items":[{"productId":`+jsonInt(p.ID)+`,"quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var order struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/"+jsonInt(order.ID)+"/status",
		strings.NewReader(`{"status":"processing"}`))
	req.Header.Set("X-Admin-ID", "7")
	req.Header.Set("X-Admin-Name", "ops")
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	// 非法流转是 400
	req = httptest.NewRequest(http.MethodPatch, "/admin/orders/"+jsonInt(order.ID)+"/status",
		strings.NewReader(`{"status":"pending"}`))
	recorder = httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// 审计可查，操作者来自请求头
	rec = doJSON(t, mux, http.MethodGet, "/admin/logs?action=update_order_status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []struct {
		AdminUserID int64  `json:"adminUserId"`
		AdminName   string `json:"adminName"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, int64(7), logs[0].AdminUserID)
	assert.Equal(t, "ops", logs[0].AdminName)
}

func TestSubscribeEndpointIdempotent(t *testing.T) {
	mux, store := newTestMux(t)
	p := seedProduct(t, store, "Widget", "10.00", 0)

	body := `{"userId":1,"productId":` + jsonInt(p.ID) + `}`
	rec := doJSON(t, mux, http.MethodPost, "/api/notifications", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/api/notifications", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		AlreadySubscribed bool `json:"alreadySubscribed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.AlreadySubscribed)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
