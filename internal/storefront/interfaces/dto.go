// internal/storefront/interfaces/dto.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bazaar/internal/storefront/domain"
)

func is(err, target error) bool { return errors.Is(err, target) }

// 对外的 JSON 形状。金额一律序列化为定点小数字符串。

type productDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Stock       int64  `json:"stock"`
	IsAvailable bool   `json:"isAvailable"`
	CategoryID  int64  `json:"categoryId"`
}

func toProductDTO(p *domain.Product) productDTO {
	return productDTO{
		ID: p.ID, Name: p.Name, Description: p.Description,
		Price: p.Price.String(), Stock: p.Stock,
		IsAvailable: p.IsAvailable, CategoryID: p.CategoryID,
	}
}

type cartItemDTO struct {
	ID        int64 `json:"id"`
	UserID    int64 `json:"userId"`
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

func toCartItemDTO(item *domain.CartItem) cartItemDTO {
	return cartItemDTO{ID: item.ID, UserID: item.UserID, ProductID: item.ProductID, Quantity: item.Quantity}
}

type cartLineDTO struct {
	Item    cartItemDTO `json:"item"`
	Product *productDTO `json:"product,omitempty"`
}

type orderItemDTO struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"productId"`
	ProductName  string `json:"productName"`
	ProductPrice string `json:"productPrice"`
	Quantity     int64  `json:"quantity"`
	Subtotal     string `json:"subtotal"`
}

type orderDTO struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"userId"`
	Status      string         `json:"status"`
	TotalAmount string         `json:"totalAmount"`
	Phone       string         `json:"phone,omitempty"`
	Address     string         `json:"address,omitempty"`
	Items       []orderItemDTO `json:"items"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func toOrderDTO(o *domain.Order) orderDTO {
	dto := orderDTO{
		ID: o.ID, UserID: o.UserID, Status: string(o.Status),
		TotalAmount: o.TotalAmount.String(), Phone: o.Phone, Address: o.Address,
		CreatedAt: o.CreatedAt, Items: make([]orderItemDTO, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, orderItemDTO{
			ID: item.ID, ProductID: item.ProductID, ProductName: item.ProductName,
			ProductPrice: item.ProductPrice.String(), Quantity: item.Quantity,
			Subtotal: item.Subtotal.String(),
		})
	}
	return dto
}

type promoDTO struct {
	Code            string  `json:"code"`
	DiscountType    string  `json:"discountType"`
	DiscountValue   string  `json:"discountValue"`
	MinimumOrder    string  `json:"minimumOrder"`
	MaximumDiscount *string `json:"maximumDiscount,omitempty"`
	MaxUses         *int64  `json:"maxUses,omitempty"`
	UsedCount       int64   `json:"usedCount"`
	MaxUsesPerUser  int64   `json:"maxUsesPerUser"`
	IsActive        bool    `json:"isActive"`
}

func toPromoDTO(p *domain.PromoCode) promoDTO {
	dto := promoDTO{
		Code: p.Code, DiscountType: string(p.DiscountType),
		DiscountValue: p.DiscountValue.String(), MinimumOrder: p.MinimumOrder.String(),
		MaxUses: p.MaxUses, UsedCount: p.UsedCount,
		MaxUsesPerUser: p.MaxUsesPerUser, IsActive: p.IsActive,
	}
	if p.MaximumDiscount != nil {
		s := p.MaximumDiscount.String()
		dto.MaximumDiscount = &s
	}
	return dto
}

type auditLogDTO struct {
	ID          int64               `json:"id"`
	AdminUserID int64               `json:"adminUserId"`
	AdminName   string              `json:"adminName"`
	Action      string              `json:"action"`
	TargetType  string              `json:"targetType"`
	TargetID    int64               `json:"targetId"`
	Details     domain.AuditDetails `json:"details,omitempty"`
	Timestamp   time.Time           `json:"timestamp"`
}

func toAuditLogDTO(e *domain.AdminLog) auditLogDTO {
	return auditLogDTO{
		ID: e.ID, AdminUserID: e.AdminUserID, AdminName: e.AdminName,
		Action: string(e.Action), TargetType: string(e.TargetType),
		TargetID: e.TargetID, Details: e.Details, Timestamp: e.Timestamp,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError 把领域哨兵错误翻译成响应码。
// 未识别的一律按 500 处理，不向外泄露内部细节。
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case isNotFound(err):
		status, msg = http.StatusNotFound, err.Error()
	case is(err, domain.ErrInvalidQuantity), is(err, domain.ErrEmptyOrder), is(err, domain.ErrInvalidStatusTransition):
		status, msg = http.StatusBadRequest, err.Error()
	case is(err, domain.ErrInsufficientStock), is(err, domain.ErrPromoExists):
		status, msg = http.StatusConflict, err.Error()
	case is(err, domain.ErrMinimumOrderNotMet), is(err, domain.ErrUsageLimitExceeded):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func isNotFound(err error) bool {
	return is(err, domain.ErrProductNotFound) ||
		is(err, domain.ErrCategoryNotFound) ||
		is(err, domain.ErrCartItemNotFound) ||
		is(err, domain.ErrOrderNotFound) ||
		is(err, domain.ErrPromoNotFound)
}
