// internal/storefront/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/storefront/application"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/infrastructure/adapter"
)

const serviceName = "storefront-service"

// StorefrontHandler 是面向买家的 HTTP 接口层。
// 这里只做 JSON 解包和错误翻译，所有不变式都在应用层/领域层。
type StorefrontHandler struct {
	cart          *application.CartService
	orders        *application.OrderService
	notifications *application.NotificationService
	promos        *application.PromoService
	catalog       *application.CatalogService
	flash         *adapter.FlashSaleRedisAdapter // 可选，未配置 Redis 时为 nil
}

func NewStorefrontHandler(
	cart *application.CartService,
	orders *application.OrderService,
	notifications *application.NotificationService,
	promos *application.PromoService,
	catalog *application.CatalogService,
	flash *adapter.FlashSaleRedisAdapter,
) *StorefrontHandler {
	return &StorefrontHandler{
		cart: cart, orders: orders, notifications: notifications,
		promos: promos, catalog: catalog, flash: flash,
	}
}

// RegisterRoutes 在 ServeMux 上注册买家侧路由。
func (h *StorefrontHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/products", instrument("/api/products", h.listProducts))
	mux.HandleFunc("GET /api/products/{id}", instrument("/api/products/{id}", h.getProduct))

	mux.HandleFunc("POST /api/cart", instrument("/api/cart", h.addToCart))
	mux.HandleFunc("GET /api/cart", instrument("/api/cart", h.listCart))
	mux.HandleFunc("PATCH /api/cart/{id}", instrument("/api/cart/{id}", h.updateCartQuantity))
	mux.HandleFunc("DELETE /api/cart/{id}", instrument("/api/cart/{id}", h.removeCartItem))

	mux.HandleFunc("POST /api/orders", instrument("/api/orders", h.createOrder))
	mux.HandleFunc("GET /api/orders", instrument("/api/orders", h.listOrders))
	mux.HandleFunc("GET /api/orders/{id}", instrument("/api/orders/{id}", h.getOrder))

	mux.HandleFunc("POST /api/notifications", instrument("/api/notifications", h.subscribe))
	mux.HandleFunc("POST /api/promo/validate", instrument("/api/promo/validate", h.validatePromo))

	if h.flash != nil {
		mux.HandleFunc("POST /api/flash/reserve", instrument("/api/flash/reserve", h.reserveFlashSale))
	}
}

// extract 恢复上游的追踪上下文并开一个服务端 span。
func extract(r *http.Request, spanName string) (context.Context, trace.Span) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	return otel.Tracer(serviceName).Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
}

func (h *StorefrontHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.ListProducts")
	defer span.End()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]productDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *StorefrontHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.GetProduct")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return
	}
	p, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *StorefrontHandler) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.AddToCart")
	defer span.End()

	var req struct {
		UserID    int64 `json:"userId"`
		ProductID int64 `json:"productId"`
		Quantity  int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	item, err := h.cart.Add(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartItemDTO(item))
}

func (h *StorefrontHandler) listCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.ListCart")
	defer span.End()

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid userId"})
		return
	}
	lines, err := h.cart.List(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]cartLineDTO, 0, len(lines))
	for _, line := range lines {
		dto := cartLineDTO{Item: toCartItemDTO(line.Item)}
		if line.Product != nil {
			p := toProductDTO(line.Product)
			dto.Product = &p
		}
		out = append(out, dto)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *StorefrontHandler) updateCartQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.UpdateCartQuantity")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid cart item id"})
		return
	}
	var req struct {
		UserID   int64 `json:"userId"`
		Quantity int64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	item, err := h.cart.UpdateQuantity(ctx, req.UserID, id, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartItemDTO(item))
}

func (h *StorefrontHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.RemoveCartItem")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid cart item id"})
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid userId"})
		return
	}
	if err := h.cart.Remove(ctx, userID, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StorefrontHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.CreateOrder")
	defer span.End()

	var req struct {
		UserID   int64  `json:"userId"`
		Phone    string `json:"phone"`
		Address  string `json:"address"`
		FromCart bool   `json:"fromCart"`
		Items    []struct {
			ProductID int64 `json:"productId"`
			Quantity  int64 `json:"quantity"`
		} `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	draft := domain.OrderDraft{UserID: req.UserID, Phone: req.Phone, Address: req.Address}

	var order *domain.Order
	var err error
	if req.FromCart {
		order, err = h.orders.CreateFromCart(ctx, draft)
	} else {
		lines := make([]domain.OrderLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, domain.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		order, err = h.orders.Create(ctx, draft, lines)
	}
	if err != nil {
		switch {
		case is(err, domain.ErrInsufficientStock):
			recordCheckout("insufficient_stock")
		case isNotFound(err):
			recordCheckout("not_found")
		default:
			recordCheckout("error")
		}
		span.RecordError(err)
		writeError(w, err)
		return
	}
	recordCheckout("ok")
	writeJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (h *StorefrontHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.ListOrders")
	defer span.End()

	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid userId"})
		return
	}
	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *StorefrontHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.GetOrder")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid order id"})
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid userId"})
		return
	}
	order, err := h.orders.Get(ctx, userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *StorefrontHandler) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.SubscribeRestock")
	defer span.End()

	var req struct {
		UserID    int64 `json:"userId"`
		ProductID int64 `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	sub, already, err := h.notifications.Subscribe(ctx, req.UserID, req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if already {
		// 幂等命中不是错误，但对调用方要可区分
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]interface{}{
		"id":                sub.ID,
		"userId":            sub.UserID,
		"productId":         sub.ProductID,
		"alreadySubscribed": already,
	})
}

func (h *StorefrontHandler) validatePromo(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.ValidatePromo")
	defer span.End()

	var req struct {
		Code      string `json:"code"`
		Subtotal  string `json:"subtotal"`
		UserID    int64  `json:"userId"`
		PriorUses int64  `json:"priorUses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid subtotal"})
		return
	}
	discount, err := h.promos.Validate(ctx, req.Code, subtotal, req.UserID, req.PriorUses)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"discount": discount.String()})
}

func (h *StorefrontHandler) reserveFlashSale(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "http.ReserveFlashSale")
	defer span.End()

	var req struct {
		UserID    int64 `json:"userId"`
		ProductID int64 `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	result, err := h.flash.Reserve(ctx, req.ProductID, req.UserID)
	if err != nil {
		span.RecordError(err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "reservation unavailable"})
		return
	}
	switch result {
	case adapter.ReserveSuccess:
		writeJSON(w, http.StatusOK, map[string]string{"result": "reserved"})
	case adapter.ReserveSoldOut:
		writeJSON(w, http.StatusConflict, map[string]string{"result": "sold_out"})
	case adapter.ReserveDuplicate:
		writeJSON(w, http.StatusOK, map[string]string{"result": "already_reserved"})
	}
}
