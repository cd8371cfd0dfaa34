// internal/storefront/interfaces/admin_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"bazaar/internal/storefront/application"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/infrastructure/adapter"
)

// AdminHandler 是后台管理接口层。操作者身份从请求头取出，
// 网关侧已经完成认证，这里只负责透传给审计。
type AdminHandler struct {
	catalog *application.CatalogService
	orders  *application.OrderService
	promos  *application.PromoService
	audit   *application.AuditService
	flash   *adapter.FlashSaleRedisAdapter
}

func NewAdminHandler(
	catalog *application.CatalogService,
	orders *application.OrderService,
	promos *application.PromoService,
	audit *application.AuditService,
	flash *adapter.FlashSaleRedisAdapter,
) *AdminHandler {
	return &AdminHandler{catalog: catalog, orders: orders, promos: promos, audit: audit, flash: flash}
}

// RegisterRoutes 在 ServeMux 上注册管理侧路由。
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/products", instrument("/admin/products", h.createProduct))
	mux.HandleFunc("PUT /admin/products/{id}", instrument("/admin/products/{id}", h.updateProduct))
	mux.HandleFunc("DELETE /admin/products/{id}", instrument("/admin/products/{id}", h.deleteProduct))

	mux.HandleFunc("POST /admin/categories", instrument("/admin/categories", h.createCategory))
	mux.HandleFunc("PUT /admin/categories/{id}", instrument("/admin/categories/{id}", h.updateCategory))
	mux.HandleFunc("DELETE /admin/categories/{id}", instrument("/admin/categories/{id}", h.deleteCategory))

	mux.HandleFunc("GET /admin/orders", instrument("/admin/orders", h.searchOrders))
	mux.HandleFunc("PATCH /admin/orders/{id}/status", instrument("/admin/orders/{id}/status", h.updateOrderStatus))

	mux.HandleFunc("POST /admin/promo-codes", instrument("/admin/promo-codes", h.createPromoCode))
	mux.HandleFunc("GET /admin/promo-codes", instrument("/admin/promo-codes", h.listPromoCodes))
	mux.HandleFunc("PUT /admin/promo-codes/{code}", instrument("/admin/promo-codes/{code}", h.updatePromoCode))
	mux.HandleFunc("DELETE /admin/promo-codes/{code}", instrument("/admin/promo-codes/{code}", h.deletePromoCode))

	mux.HandleFunc("GET /admin/logs", instrument("/admin/logs", h.queryLogs))

	if h.flash != nil {
		mux.HandleFunc("POST /admin/flash/prepare", instrument("/admin/flash/prepare", h.prepareFlashSale))
	}
}

// actorFrom 从请求头解出操作者。缺省头给出匿名管理员，审计仍然可追。
func actorFrom(r *http.Request) domain.Actor {
	id, _ := strconv.ParseInt(r.Header.Get("X-Admin-ID"), 10, 64)
	name := r.Header.Get("X-Admin-Name")
	if name == "" {
		name = "unknown"
	}
	return domain.Actor{ID: id, Name: name}
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int64  `json:"stock"`
	CategoryID  int64  `json:"categoryId"`
}

func (req *productRequest) toInput() (application.ProductInput, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return application.ProductInput{}, err
	}
	return application.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}, nil
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.CreateProduct")
	defer span.End()

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid price"})
		return
	}
	p, err := h.catalog.CreateProduct(ctx, actorFrom(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.UpdateProduct")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return
	}
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid price"})
		return
	}
	p, err := h.catalog.UpdateProduct(ctx, actorFrom(r), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.DeleteProduct")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid product id"})
		return
	}
	if err := h.catalog.DeleteProduct(ctx, actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.CreateCategory")
	defer span.End()

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	c, err := h.catalog.CreateCategory(ctx, actorFrom(r), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": c.ID, "name": c.Name})
}

func (h *AdminHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.UpdateCategory")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid category id"})
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	c, err := h.catalog.UpdateCategory(ctx, actorFrom(r), id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": c.ID, "name": c.Name})
}

func (h *AdminHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.DeleteCategory")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid category id"})
		return
	}
	if err := h.catalog.DeleteCategory(ctx, actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) searchOrders(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.SearchOrders")
	defer span.End()

	q := r.URL.Query()
	orders, err := h.orders.Search(ctx, q.Get("search"), q.Get("status"))
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

func (h *AdminHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.UpdateOrderStatus")
	defer span.End()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid order id"})
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	next := domain.OrderStatus(req.Status)
	if !next.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unknown order status"})
		return
	}
	order, err := h.orders.UpdateStatus(ctx, actorFrom(r), id, next)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(order))
}

type promoRequest struct {
	Code            string  `json:"code"`
	DiscountType    string  `json:"discountType"`
	DiscountValue   string  `json:"discountValue"`
	MinimumOrder    string  `json:"minimumOrder"`
	MaximumDiscount *string `json:"maximumDiscount"`
	MaxUses         *int64  `json:"maxUses"`
	MaxUsesPerUser  int64   `json:"maxUsesPerUser"`
	IsActive        bool    `json:"isActive"`
}

func (req *promoRequest) toDomain() (*domain.PromoCode, error) {
	value, err := decimal.NewFromString(req.DiscountValue)
	if err != nil {
		return nil, err
	}
	minimum := decimal.Zero
	if req.MinimumOrder != "" {
		if minimum, err = decimal.NewFromString(req.MinimumOrder); err != nil {
			return nil, err
		}
	}
	p := &domain.PromoCode{
		Code:           domain.NormalizeCode(req.Code),
		DiscountType:   domain.DiscountType(req.DiscountType),
		DiscountValue:  value,
		MinimumOrder:   minimum,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		IsActive:       req.IsActive,
	}
	if req.MaximumDiscount != nil {
		maximum, err := decimal.NewFromString(*req.MaximumDiscount)
		if err != nil {
			return nil, err
		}
		p.MaximumDiscount = &maximum
	}
	return p, nil
}

func (h *AdminHandler) createPromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.CreatePromoCode")
	defer span.End()

	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	promo, err := req.toDomain()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid amount"})
		return
	}
	created, err := h.promos.Create(ctx, actorFrom(r), promo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPromoDTO(created))
}

func (h *AdminHandler) listPromoCodes(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.ListPromoCodes")
	defer span.End()

	promos, err := h.promos.List(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]promoDTO, 0, len(promos))
	for _, p := range promos {
		out = append(out, toPromoDTO(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) updatePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.UpdatePromoCode")
	defer span.End()

	var req promoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	req.Code = r.PathValue("code")
	promo, err := req.toDomain()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid amount"})
		return
	}
	updated, err := h.promos.Update(ctx, actorFrom(r), promo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromoDTO(updated))
}

func (h *AdminHandler) deletePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.DeletePromoCode")
	defer span.End()

	if err := h.promos.Delete(ctx, actorFrom(r), r.PathValue("code")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) queryLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.QueryLogs")
	defer span.End()

	q := r.URL.Query()
	filter := domain.AuditFilter{
		Action:     domain.AdminAction(q.Get("action")),
		TargetType: domain.TargetType(q.Get("targetType")),
	}
	if v := q.Get("adminId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid adminId"})
			return
		}
		filter.AdminUserID = id
	}
	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid startDate"})
			return
		}
		filter.From = t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid endDate"})
			return
		}
		filter.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid limit"})
			return
		}
		filter.Limit = n
	}
	entries, err := h.audit.Query(ctx, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]auditLogDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditLogDTO(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) prepareFlashSale(w http.ResponseWriter, r *http.Request) {
	ctx, span := extract(r, "admin.PrepareFlashSale")
	defer span.End()

	var req struct {
		ProductID int64 `json:"productId"`
		Stock     int64 `json:"stock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := h.flash.Prepare(ctx, req.ProductID, req.Stock); err != nil {
		span.RecordError(err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "flash sale preparation failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
