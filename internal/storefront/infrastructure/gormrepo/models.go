// internal/storefront/infrastructure/gormrepo/models.go
package gormrepo

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"bazaar/internal/storefront/domain"
)

// NewDB 打开 MySQL 连接并迁移全部表结构。
func NewDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	err = db.AutoMigrate(
		&ProductModel{}, &CategoryModel{}, &CartItemModel{},
		&OrderModel{}, &OrderItemModel{},
		&NotificationModel{}, &PromoCodeModel{}, &AdminLogModel{},
	)
	if err != nil {
		return nil, errors.Wrap(err, "auto migrate")
	}
	return db, nil
}

// ProductModel 对应 products 表。
type ProductModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock       int64           `gorm:"not null"`
	IsAvailable bool            `gorm:"not null"`
	CategoryID  int64           `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ProductModel) TableName() string { return "products" }

// CategoryModel 对应 categories 表。
type CategoryModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CategoryModel) TableName() string { return "categories" }

// CartItemModel 对应 cart_items 表。
// (user_id, product_id) 的复合唯一索引在数据库层兜住唯一行不变式。
type CartItemModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"not null;uniqueIndex:uk_cart_user_product"`
	ProductID int64 `gorm:"not null;uniqueIndex:uk_cart_user_product"`
	Quantity  int64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CartItemModel) TableName() string { return "cart_items" }

// OrderModel 对应 orders 表。
type OrderModel struct {
	ID          int64            `gorm:"primaryKey;autoIncrement"`
	UserID      int64            `gorm:"index;not null"`
	Status      string           `gorm:"size:32;index;not null"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Phone       string           `gorm:"size:32"`
	Address     string           `gorm:"size:512"`
	Items       []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time        `gorm:"index"`
	UpdatedAt   time.Time
}

func (OrderModel) TableName() string { return "orders" }

// OrderItemModel 对应 order_items 表，冻结下单时刻的商品快照。
type OrderItemModel struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"`
	OrderID      int64           `gorm:"index;not null"`
	ProductID    int64           `gorm:"not null"`
	ProductName  string          `gorm:"size:255;not null"`
	ProductPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity     int64           `gorm:"not null"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (OrderItemModel) TableName() string { return "order_items" }

// NotificationModel 对应 product_notifications 表。
type NotificationModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int64 `gorm:"not null;uniqueIndex:uk_notify_user_product"`
	ProductID int64 `gorm:"not null;uniqueIndex:uk_notify_user_product;index"`
	CreatedAt time.Time
}

func (NotificationModel) TableName() string { return "product_notifications" }

// PromoCodeModel 对应 promo_codes 表，code 以规范化形式作主键。
type PromoCodeModel struct {
	Code            string           `gorm:"primaryKey;size:64"`
	DiscountType    string           `gorm:"size:16;not null"`
	DiscountValue   decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MinimumOrder    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MaximumDiscount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	MaxUses         *int64
	UsedCount       int64 `gorm:"not null"`
	MaxUsesPerUser  int64 `gorm:"not null"`
	IsActive        bool  `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (PromoCodeModel) TableName() string { return "promo_codes" }

// AdminLogModel 对应 admin_logs 表。Details 存标签联合序列化后的 JSON。
type AdminLogModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	AdminUserID int64  `gorm:"index;not null"`
	AdminName   string `gorm:"size:255"`
	Action      string `gorm:"size:64;index;not null"`
	TargetType  string `gorm:"size:32;index"`
	TargetID    int64
	Details     []byte    `gorm:"type:json"`
	Timestamp   time.Time `gorm:"index"`
}

func (AdminLogModel) TableName() string { return "admin_logs" }

// encodeDetails / decodeDetails 在标签联合和存储 JSON 之间转换。
// 联合的判别键是 Action，所以解码不需要额外的类型标记字段。
func encodeDetails(d domain.AuditDetails) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func decodeDetails(action domain.AdminAction, raw []byte) (domain.AuditDetails, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var target domain.AuditDetails
	switch action {
	case domain.ActionCreateProduct:
		target = &domain.ProductCreateDetails{}
	case domain.ActionUpdateProduct:
		target = &domain.ProductUpdateDetails{}
	case domain.ActionDeleteProduct:
		target = &domain.ProductDeleteDetails{}
	case domain.ActionCreateCategory, domain.ActionUpdateCategory, domain.ActionDeleteCategory:
		target = &domain.CategoryDetails{}
	case domain.ActionUpdateOrderStatus:
		target = &domain.OrderStatusDetails{}
	case domain.ActionCreatePromoCode, domain.ActionUpdatePromoCode, domain.ActionDeletePromoCode:
		target = &domain.PromoCodeDetails{}
	case domain.ActionSendNotification:
		target = &domain.BroadcastDetails{}
	default:
		return nil, errors.Errorf("unknown audit action %q", action)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, errors.Wrapf(err, "decode audit details for %s", action)
	}
	return deref(target), nil
}

func deref(d domain.AuditDetails) domain.AuditDetails {
	switch v := d.(type) {
	case *domain.ProductCreateDetails:
		return *v
	case *domain.ProductUpdateDetails:
		return *v
	case *domain.ProductDeleteDetails:
		return *v
	case *domain.CategoryDetails:
		return *v
	case *domain.OrderStatusDetails:
		return *v
	case *domain.PromoCodeDetails:
		return *v
	case *domain.BroadcastDetails:
		return *v
	}
	return d
}
