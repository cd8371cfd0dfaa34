// internal/storefront/application/catalog_service.go
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/storefront/domain"
)

// CatalogService 承载商品与分类的后台管理。所有变更都会落审计；
// 库存字段的改动全部转交 StockService——目录服务自己从不直写 Stock。
type CatalogService struct {
	products      domain.ProductRepository
	categories    domain.CategoryRepository
	stock         *StockService
	notifications *NotificationService
	audit         *AuditService
	tracer        trace.Tracer
}

func NewCatalogService(
	products domain.ProductRepository,
	categories domain.CategoryRepository,
	stock *StockService,
	notifications *NotificationService,
	audit *AuditService,
	tracer trace.Tracer,
) *CatalogService {
	return &CatalogService{
		products: products, categories: categories, stock: stock,
		notifications: notifications, audit: audit, tracer: tracer,
	}
}

// ProductInput 是管理端创建/编辑商品的输入。
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	CategoryID  int64
}

// CreateProduct 新建商品。初始可售性由初始库存决定。
func (s *CatalogService) CreateProduct(ctx context.Context, actor domain.Actor, in ProductInput) (*domain.Product, error) {
	p := &domain.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsAvailable: in.Stock > 0,
		CategoryID:  in.CategoryID,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, domain.ActionCreateProduct, domain.TargetProduct, p.ID,
		domain.ProductCreateDetails{ProductSnapshot: snapshotOf(p)})
	return p, nil
}

// UpdateProduct 编辑商品。非库存字段直接写回；库存走 StockService，
// 当库存发生 0→正 的补货跃迁时，在锁外触发到货通知的派发。
func (s *CatalogService) UpdateProduct(ctx context.Context, actor domain.Actor, productID int64, in ProductInput) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.UpdateProduct")
	defer span.End()

	var updated *domain.Product
	var before domain.ProductSnapshot
	var restocked bool
	err := s.stock.WithProducts(ctx, []int64{productID}, func(ctx context.Context) error {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		before = snapshotOf(p)

		p.Name = in.Name
		p.Description = in.Description
		p.Price = in.Price
		p.CategoryID = in.CategoryID
		if err := s.products.Update(ctx, p); err != nil {
			return err
		}

		updated, restocked, err = s.stock.setStockHeld(ctx, productID, in.Stock)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, domain.ActionUpdateProduct, domain.TargetProduct, productID,
		domain.ProductUpdateDetails{Before: before, After: snapshotOf(updated)})

	// 商品更新已落库，到货通知的派发是尽力而为，失败不影响主流程
	if restocked {
		if _, err := s.notifications.DischargeForProduct(ctx, actor, updated); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Int64("product_id", productID).
				Msg("Restock notification discharge failed")
		}
	}
	return updated, nil
}

// DeleteProduct 把商品从目录里移除。历史订单不受影响：
// 行项目里保存的是下单时刻的快照，不是对商品行的引用。
func (s *CatalogService) DeleteProduct(ctx context.Context, actor domain.Actor, productID int64) error {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, domain.ActionDeleteProduct, domain.TargetProduct, productID,
		domain.ProductDeleteDetails{ProductSnapshot: snapshotOf(p)})
	return nil
}

// GetProduct 读取单个商品。
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	return s.products.FindByID(ctx, productID)
}

// ListProducts 列出全部商品。
func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

// CreateCategory 新建分类。
func (s *CatalogService) CreateCategory(ctx context.Context, actor domain.Actor, name string) (*domain.Category, error) {
	c := &domain.Category{Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, domain.ActionCreateCategory, domain.TargetCategory, c.ID,
		domain.CategoryDetails{Name: name})
	return c, nil
}

// UpdateCategory 重命名分类。
func (s *CatalogService) UpdateCategory(ctx context.Context, actor domain.Actor, categoryID int64, name string) (*domain.Category, error) {
	c, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	c.Name = name
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, actor, domain.ActionUpdateCategory, domain.TargetCategory, categoryID,
		domain.CategoryDetails{Name: name})
	return c, nil
}

// DeleteCategory 删除分类。
func (s *CatalogService) DeleteCategory(ctx context.Context, actor domain.Actor, categoryID int64) error {
	c, err := s.categories.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return err
	}
	s.audit.Record(ctx, actor, domain.ActionDeleteCategory, domain.TargetCategory, categoryID,
		domain.CategoryDetails{Name: c.Name})
	return nil
}

func snapshotOf(p *domain.Product) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		Name:       p.Name,
		Price:      p.Price.String(),
		Stock:      p.Stock,
		CategoryID: p.CategoryID,
	}
}
