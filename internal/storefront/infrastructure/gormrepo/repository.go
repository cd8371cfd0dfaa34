// internal/storefront/infrastructure/gormrepo/repository.go
package gormrepo

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazaar/internal/storefront/domain"
)

// GORM + MySQL 的实体仓库实现。读改写序列用 SELECT ... FOR UPDATE
// 行锁串行化，(user_id, product_id) 的唯一行约束同时落成数据库唯一索引。

// Store 捆绑全部 GORM 仓库，和 memory.Store 对应。
type Store struct {
	Products      *ProductRepository
	Categories    *CategoryRepository
	Carts         *CartRepository
	Orders        *OrderRepository
	Notifications *NotificationRepository
	Promos        *PromoRepository
	Audit         *AuditRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Products:      &ProductRepository{db: db},
		Categories:    &CategoryRepository{db: db},
		Carts:         &CartRepository{db: db},
		Orders:        &OrderRepository{db: db},
		Notifications: &NotificationRepository{db: db},
		Promos:        &PromoRepository{db: db},
		Audit:         &AuditRepository{db: db},
	}
}

// ProductRepository 实现 domain.ProductRepository。
type ProductRepository struct{ db *gorm.DB }

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	m := fromDomainProduct(p)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "create product")
	}
	*p = *toDomainProduct(m)
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var m ProductModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product")
	}
	return toDomainProduct(&m), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"name":         p.Name,
		"description":  p.Description,
		"price":        p.Price,
		"stock":        p.Stock,
		"is_available": p.IsAvailable,
		"category_id":  p.CategoryID,
		"updated_at":   time.Now(),
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&ProductModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	var ms []ProductModel
	if err := r.db.WithContext(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	out := make([]*domain.Product, len(ms))
	for i := range ms {
		out[i] = toDomainProduct(&ms[i])
	}
	return out, nil
}

// CategoryRepository 实现 domain.CategoryRepository。
type CategoryRepository struct{ db *gorm.DB }

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) error {
	m := &CategoryModel{Name: c.Name}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "create category")
	}
	*c = *toDomainCategory(m)
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	var m CategoryModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, errors.Wrap(err, "find category")
	}
	return toDomainCategory(&m), nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) error {
	res := r.db.WithContext(ctx).Model(&CategoryModel{}).Where("id = ?", c.ID).
		Updates(map[string]interface{}{"name": c.Name, "updated_at": time.Now()})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update category")
	}
	if res.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&CategoryModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete category")
	}
	if res.RowsAffected == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	var ms []CategoryModel
	if err := r.db.WithContext(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	out := make([]*domain.Category, len(ms))
	for i := range ms {
		out[i] = toDomainCategory(&ms[i])
	}
	return out, nil
}

// CartRepository 实现 domain.CartRepository。
type CartRepository struct{ db *gorm.DB }

// Add 在一个事务里锁行后"查找或新建"。(user_id, product_id) 的
// 唯一索引兜底：即便两个事务同时走到插入，也只有一个能成功。
func (r *CartRepository) Add(ctx context.Context, userID, productID, quantity int64) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	var out *domain.CartItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m CartItemModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&m).Error
		switch {
		case err == nil:
			m.Quantity += quantity
			if err := tx.Model(&m).Updates(map[string]interface{}{
				"quantity": m.Quantity, "updated_at": time.Now(),
			}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			m = CartItemModel{UserID: userID, ProductID: productID, Quantity: quantity}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		default:
			return err
		}
		out = toDomainCartItem(&m)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	return out, nil
}

func (r *CartRepository) FindByID(ctx context.Context, id int64) (*domain.CartItem, error) {
	var m CartItemModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, errors.Wrap(err, "find cart item")
	}
	return toDomainCartItem(&m), nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, id, quantity int64) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).Model(&CartItemModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update cart quantity")
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrCartItemNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *CartRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&CartItemModel{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete cart item")
	}
	if res.RowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteByUser(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&CartItemModel{}).Error
	return errors.Wrap(err, "clear cart")
}

func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.CartItem, error) {
	var ms []CartItemModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	out := make([]*domain.CartItem, len(ms))
	for i := range ms {
		out[i] = toDomainCartItem(&ms[i])
	}
	return out, nil
}

// OrderRepository 实现 domain.OrderRepository。
type OrderRepository struct{ db *gorm.DB }

// Create 在一个事务里落下订单头和全部行项目。
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	m := fromDomainOrder(o)
	m.ID = 0
	for i := range m.Items {
		m.Items[i].ID = 0
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	*o = *toDomainOrder(m)
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	var m OrderModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	return toDomainOrder(&m), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "updated_at": time.Now()})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Search(ctx context.Context, term string, status domain.OrderStatus) ([]*domain.Order, error) {
	q := r.db.WithContext(ctx).Model(&OrderModel{}).Preload("Items")
	if status != "" && status != "all" {
		q = q.Where("status = ?", string(status))
	}
	term = strings.TrimSpace(term)
	if term != "" {
		like := "%" + term + "%"
		q = q.Where("CAST(id AS CHAR) LIKE ? OR phone LIKE ? OR LOWER(address) LIKE LOWER(?)", like, like, like)
	}
	var ms []OrderModel
	if err := q.Order("created_at DESC, id DESC").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "search orders")
	}
	out := make([]*domain.Order, len(ms))
	for i := range ms {
		out[i] = toDomainOrder(&ms[i])
	}
	return out, nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	var ms []OrderModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	out := make([]*domain.Order, len(ms))
	for i := range ms {
		out[i] = toDomainOrder(&ms[i])
	}
	return out, nil
}

// NotificationRepository 实现 domain.NotificationRepository。
type NotificationRepository struct{ db *gorm.DB }

func (r *NotificationRepository) Subscribe(ctx context.Context, userID, productID int64) (*domain.ProductNotification, bool, error) {
	var sub *domain.ProductNotification
	already := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m NotificationModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND product_id = ?", userID, productID).
			First(&m).Error
		switch {
		case err == nil:
			already = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			m = NotificationModel{UserID: userID, ProductID: productID}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		default:
			return err
		}
		sub = toDomainNotification(&m)
		return nil
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "subscribe notification")
	}
	return sub, already, nil
}

// TakeByProduct 先锁定再删除，读出的名单和删掉的行是同一批。
func (r *NotificationRepository) TakeByProduct(ctx context.Context, productID int64) ([]*domain.ProductNotification, error) {
	var out []*domain.ProductNotification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ms []NotificationModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", productID).Order("id").Find(&ms).Error
		if err != nil {
			return err
		}
		if len(ms) == 0 {
			return nil
		}
		if err := tx.Where("product_id = ?", productID).Delete(&NotificationModel{}).Error; err != nil {
			return err
		}
		for i := range ms {
			out = append(out, toDomainNotification(&ms[i]))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "take notifications")
	}
	return out, nil
}

func (r *NotificationRepository) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&NotificationModel{}).Where("product_id = ?", productID).Count(&n).Error
	return n, errors.Wrap(err, "count notifications")
}

// PromoRepository 实现 domain.PromoRepository。
type PromoRepository struct{ db *gorm.DB }

func (r *PromoRepository) Create(ctx context.Context, p *domain.PromoCode) error {
	m := fromDomainPromo(p)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrPromoExists
		}
		return errors.Wrap(err, "create promo code")
	}
	*p = *toDomainPromo(m)
	return nil
}

func (r *PromoRepository) FindByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	var m PromoCodeModel
	err := r.db.WithContext(ctx).Where("code = ?", domain.NormalizeCode(code)).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, errors.Wrap(err, "find promo code")
	}
	return toDomainPromo(&m), nil
}

func (r *PromoRepository) Update(ctx context.Context, p *domain.PromoCode) error {
	m := fromDomainPromo(p)
	res := r.db.WithContext(ctx).Model(&PromoCodeModel{}).Where("code = ?", m.Code).
		Updates(map[string]interface{}{
			"discount_type":     m.DiscountType,
			"discount_value":    m.DiscountValue,
			"minimum_order":     m.MinimumOrder,
			"maximum_discount":  m.MaximumDiscount,
			"max_uses":          m.MaxUses,
			"max_uses_per_user": m.MaxUsesPerUser,
			"is_active":         m.IsActive,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update promo code")
	}
	if res.RowsAffected == 0 {
		return domain.ErrPromoNotFound
	}
	return nil
}

func (r *PromoRepository) Delete(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).Where("code = ?", domain.NormalizeCode(code)).Delete(&PromoCodeModel{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete promo code")
	}
	if res.RowsAffected == 0 {
		return domain.ErrPromoNotFound
	}
	return nil
}

func (r *PromoRepository) List(ctx context.Context) ([]*domain.PromoCode, error) {
	var ms []PromoCodeModel
	if err := r.db.WithContext(ctx).Order("code").Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "list promo codes")
	}
	out := make([]*domain.PromoCode, len(ms))
	for i := range ms {
		out[i] = toDomainPromo(&ms[i])
	}
	return out, nil
}

// Redeem 用行锁把"检查上限再加一"压进一个事务，
// 并发核销下 used_count 不会越过 max_uses。
func (r *PromoRepository) Redeem(ctx context.Context, code string) (*domain.PromoCode, error) {
	var out *domain.PromoCode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m PromoCodeModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", domain.NormalizeCode(code)).First(&m).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPromoNotFound
			}
			return err
		}
		if m.MaxUses != nil && m.UsedCount >= *m.MaxUses {
			return domain.ErrUsageLimitExceeded
		}
		m.UsedCount++
		if err := tx.Model(&m).Updates(map[string]interface{}{
			"used_count": m.UsedCount, "updated_at": time.Now(),
		}).Error; err != nil {
			return err
		}
		out = toDomainPromo(&m)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrPromoNotFound) || errors.Is(err, domain.ErrUsageLimitExceeded) {
			return nil, err
		}
		return nil, errors.Wrap(err, "redeem promo code")
	}
	return out, nil
}

// AuditRepository 实现 domain.AuditRepository。
type AuditRepository struct{ db *gorm.DB }

func (r *AuditRepository) Append(ctx context.Context, entry *domain.AdminLog) error {
	raw, err := encodeDetails(entry.Details)
	if err != nil {
		return errors.Wrap(err, "encode audit details")
	}
	m := &AdminLogModel{
		AdminUserID: entry.AdminUserID,
		AdminName:   entry.AdminName,
		Action:      string(entry.Action),
		TargetType:  string(entry.TargetType),
		TargetID:    entry.TargetID,
		Details:     raw,
		Timestamp:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return errors.Wrap(err, "append audit entry")
	}
	entry.ID = m.ID
	entry.Timestamp = m.Timestamp
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, f domain.AuditFilter) ([]*domain.AdminLog, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = domain.DefaultAuditLimit
	}
	q := r.db.WithContext(ctx).Model(&AdminLogModel{})
	if f.Action != "" {
		q = q.Where("action = ?", string(f.Action))
	}
	if f.AdminUserID != 0 {
		q = q.Where("admin_user_id = ?", f.AdminUserID)
	}
	if f.TargetType != "" {
		q = q.Where("target_type = ?", string(f.TargetType))
	}
	if !f.From.IsZero() {
		q = q.Where("timestamp >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("timestamp <= ?", f.To)
	}
	var ms []AdminLogModel
	if err := q.Order("timestamp DESC, id DESC").Limit(limit).Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "query audit log")
	}
	out := make([]*domain.AdminLog, 0, len(ms))
	for i := range ms {
		entry, err := toDomainAdminLog(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}
