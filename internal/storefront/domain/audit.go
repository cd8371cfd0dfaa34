// internal/storefront/domain/audit.go
package domain

import "time"

// AdminAction 枚举后台会被审计的全部变更动作。
type AdminAction string

const (
	ActionCreateProduct     AdminAction = "create_product"
	ActionUpdateProduct     AdminAction = "update_product"
	ActionDeleteProduct     AdminAction = "delete_product"
	ActionCreateCategory    AdminAction = "create_category"
	ActionUpdateCategory    AdminAction = "update_category"
	ActionDeleteCategory    AdminAction = "delete_category"
	ActionUpdateOrderStatus AdminAction = "update_order_status"
	ActionCreatePromoCode   AdminAction = "create_promo_code"
	ActionUpdatePromoCode   AdminAction = "update_promo_code"
	ActionDeletePromoCode   AdminAction = "delete_promo_code"
	ActionSendNotification  AdminAction = "send_notification"
)

// TargetType 标记审计条目指向的实体类别。
type TargetType string

const (
	TargetProduct      TargetType = "product"
	TargetCategory     TargetType = "category"
	TargetOrder        TargetType = "order"
	TargetPromoCode    TargetType = "promo_code"
	TargetNotification TargetType = "notification"
)

// AuditDetails 是审计载荷的标签联合：每种管理动作一个变体，
// 只携带该动作需要的字段，取代按需翻查的无类型字典。
// 审计日志本身不解读载荷，只负责存储。
type AuditDetails interface {
	isAuditDetails()
}

// ProductSnapshot 是商品在某一时刻的审计快照。
type ProductSnapshot struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	Stock      int64  `json:"stock"`
	CategoryID int64  `json:"categoryId"`
}

// ProductCreateDetails 记录新建商品时的初始字段。
type ProductCreateDetails struct {
	ProductSnapshot
}

// ProductUpdateDetails 记录商品编辑的前后对照。
type ProductUpdateDetails struct {
	Before ProductSnapshot `json:"before"`
	After  ProductSnapshot `json:"after"`
}

// ProductDeleteDetails 保留被删商品的最后快照。
type ProductDeleteDetails struct {
	ProductSnapshot
}

// CategoryDetails 记录分类的创建/改名/删除。
type CategoryDetails struct {
	Name string `json:"name"`
}

// OrderStatusDetails 记录订单状态流转的起止状态。
type OrderStatusDetails struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PromoCodeDetails 记录优惠码的管理变更。
type PromoCodeDetails struct {
	Code         string `json:"code"`
	DiscountType string `json:"discountType"`
}

// BroadcastDetails 记录一次到货通知派发的规模。
type BroadcastDetails struct {
	ProductID       int64 `json:"productId"`
	SubscriberCount int   `json:"subscriberCount"`
}

func (ProductCreateDetails) isAuditDetails() {}
func (ProductUpdateDetails) isAuditDetails() {}
func (ProductDeleteDetails) isAuditDetails() {}
func (CategoryDetails) isAuditDetails()      {}
func (OrderStatusDetails) isAuditDetails()   {}
func (PromoCodeDetails) isAuditDetails()     {}
func (BroadcastDetails) isAuditDetails()     {}

// Actor 标识一次后台操作的执行者。
type Actor struct {
	ID   int64
	Name string
}

// AdminLog 是一条只追加的审计记录，写入后不再变更。
type AdminLog struct {
	ID          int64
	AdminUserID int64
	AdminName   string
	Action      AdminAction
	TargetType  TargetType
	TargetID    int64
	Details     AuditDetails
	Timestamp   time.Time
}

// AuditFilter 是审计查询的条件集合，全部可选且按 AND 组合。
// Limit <= 0 时使用 DefaultAuditLimit。
type AuditFilter struct {
	Action      AdminAction
	AdminUserID int64
	TargetType  TargetType
	From        time.Time
	To          time.Time
	Limit       int
}

// DefaultAuditLimit 是审计查询的默认条数上限。
const DefaultAuditLimit = 100
