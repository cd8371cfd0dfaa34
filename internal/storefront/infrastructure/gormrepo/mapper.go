// internal/storefront/infrastructure/gormrepo/mapper.go
package gormrepo

import "bazaar/internal/storefront/domain"

// 数据库模型和领域模型之间的双向转换。

func toDomainProduct(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID: m.ID, Name: m.Name, Description: m.Description,
		Price: m.Price, Stock: m.Stock, IsAvailable: m.IsAvailable,
		CategoryID: m.CategoryID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func fromDomainProduct(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID: p.ID, Name: p.Name, Description: p.Description,
		Price: p.Price, Stock: p.Stock, IsAvailable: p.IsAvailable,
		CategoryID: p.CategoryID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func toDomainCategory(m *CategoryModel) *domain.Category {
	return &domain.Category{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func toDomainCartItem(m *CartItemModel) *domain.CartItem {
	return &domain.CartItem{
		ID: m.ID, UserID: m.UserID, ProductID: m.ProductID,
		Quantity: m.Quantity, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	o := &domain.Order{
		ID: m.ID, UserID: m.UserID, Status: domain.OrderStatus(m.Status),
		TotalAmount: m.TotalAmount, Phone: m.Phone, Address: m.Address,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
	for i := range m.Items {
		item := &m.Items[i]
		o.Items = append(o.Items, &domain.OrderItem{
			ID: item.ID, OrderID: item.OrderID, ProductID: item.ProductID,
			ProductName: item.ProductName, ProductPrice: item.ProductPrice,
			Quantity: item.Quantity, Subtotal: item.Subtotal,
		})
	}
	return o
}

func fromDomainOrder(o *domain.Order) *OrderModel {
	m := &OrderModel{
		ID: o.ID, UserID: o.UserID, Status: string(o.Status),
		TotalAmount: o.TotalAmount, Phone: o.Phone, Address: o.Address,
		CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
	}
	for _, item := range o.Items {
		m.Items = append(m.Items, OrderItemModel{
			ID: item.ID, OrderID: item.OrderID, ProductID: item.ProductID,
			ProductName: item.ProductName, ProductPrice: item.ProductPrice,
			Quantity: item.Quantity, Subtotal: item.Subtotal,
		})
	}
	return m
}

func toDomainNotification(m *NotificationModel) *domain.ProductNotification {
	return &domain.ProductNotification{
		ID: m.ID, UserID: m.UserID, ProductID: m.ProductID, CreatedAt: m.CreatedAt,
	}
}

func toDomainPromo(m *PromoCodeModel) *domain.PromoCode {
	return &domain.PromoCode{
		Code:            m.Code,
		DiscountType:    domain.DiscountType(m.DiscountType),
		DiscountValue:   m.DiscountValue,
		MinimumOrder:    m.MinimumOrder,
		MaximumDiscount: m.MaximumDiscount,
		MaxUses:         m.MaxUses,
		UsedCount:       m.UsedCount,
		MaxUsesPerUser:  m.MaxUsesPerUser,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromDomainPromo(p *domain.PromoCode) *PromoCodeModel {
	return &PromoCodeModel{
		Code:            domain.NormalizeCode(p.Code),
		DiscountType:    string(p.DiscountType),
		DiscountValue:   p.DiscountValue,
		MinimumOrder:    p.MinimumOrder,
		MaximumDiscount: p.MaximumDiscount,
		MaxUses:         p.MaxUses,
		UsedCount:       p.UsedCount,
		MaxUsesPerUser:  p.MaxUsesPerUser,
		IsActive:        p.IsActive,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toDomainAdminLog(m *AdminLogModel) (*domain.AdminLog, error) {
	details, err := decodeDetails(domain.AdminAction(m.Action), m.Details)
	if err != nil {
		return nil, err
	}
	return &domain.AdminLog{
		ID: m.ID, AdminUserID: m.AdminUserID, AdminName: m.AdminName,
		Action: domain.AdminAction(m.Action), TargetType: domain.TargetType(m.TargetType),
		TargetID: m.TargetID, Details: details, Timestamp: m.Timestamp,
	}, nil
}
