package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/storefront/application"
	"bazaar/internal/storefront/domain"
	"bazaar/internal/storefront/domain/port"
	"bazaar/internal/storefront/infrastructure/adapter"
	"bazaar/internal/storefront/infrastructure/gormrepo"
	"bazaar/internal/storefront/infrastructure/memory"
	"bazaar/internal/storefront/interfaces"
)

const serviceName = "storefront-service"

// repos 把两种仓库实现（进程内 / MySQL)收敛成同一组领域接口。
type repos struct {
	products      domain.ProductRepository
	categories    domain.CategoryRepository
	carts         domain.CartRepository
	orders        domain.OrderRepository
	notifications domain.NotificationRepository
	promos        domain.PromoRepository
	audit         domain.AuditRepository
}

func main() {
	cfg, err := bootstrap.LoadConfig("configs/storefront.yaml")
	if err != nil {
		logger.Init(serviceName)
		logger.Logger().Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Service.Name = serviceName

	var shutdown []func(ctx context.Context)

	// 仓库：默认进程内实现，配置了 MySQL 就切到 GORM。
	var r repos
	if cfg.MySQL.Enabled {
		db, err := gormrepo.NewDB(cfg.MySQL.DSN)
		if err != nil {
			logger.Init(serviceName)
			logger.Logger().Fatal().Err(err).Msg("failed to connect mysql")
		}
		store := gormrepo.NewStore(db)
		r = repos{
			products: store.Products, categories: store.Categories,
			carts: store.Carts, orders: store.Orders,
			notifications: store.Notifications, promos: store.Promos, audit: store.Audit,
		}
	} else {
		store := memory.NewStore()
		r = repos{
			products: store.Products, categories: store.Categories,
			carts: store.Carts, orders: store.Orders,
			notifications: store.Notifications, promos: store.Promos, audit: store.Audit,
		}
	}

	// 商品锁：单进程用本地互斥表，多进程部署切 ZooKeeper。
	var locker port.ProductLocker
	if cfg.Zookeeper.Enabled {
		zkLocker, err := adapter.NewZkProductLocker(cfg.Zookeeper.Addrs, 5*time.Second)
		if err != nil {
			logger.Init(serviceName)
			logger.Logger().Fatal().Err(err).Msg("failed to connect zookeeper")
		}
		locker = zkLocker
		shutdown = append(shutdown, func(ctx context.Context) { zkLocker.Close() })
	} else {
		locker = adapter.NewLocalProductLocker()
	}

	// 推送事件出口：没配 Kafka broker 时派发是空操作。
	var dispatcher port.NotificationDispatcher
	if len(cfg.Kafka.Brokers) > 0 {
		kd := adapter.NewKafkaDispatcher(
			mq.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.RestockTopic),
			mq.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderEventsTopic),
		)
		dispatcher = kd
		shutdown = append(shutdown, func(ctx context.Context) {
			if err := kd.Close(); err != nil {
				logger.Logger().Error().Err(err).Msg("error closing kafka dispatcher")
			}
		})
	}

	var flash *adapter.FlashSaleRedisAdapter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		flash = adapter.NewFlashSaleRedisAdapter(rdb)
		shutdown = append(shutdown, func(ctx context.Context) {
			if err := rdb.Close(); err != nil {
				logger.Logger().Error().Err(err).Msg("error closing redis client")
			}
		})
	}

	tracer := otel.Tracer(serviceName)
	auditSvc := application.NewAuditService(r.audit)
	stockSvc := application.NewStockService(r.products, locker)
	cartSvc := application.NewCartService(r.carts, r.products)
	notifySvc := application.NewNotificationService(r.notifications, r.products, dispatcher, auditSvc)
	catalogSvc := application.NewCatalogService(r.products, r.categories, stockSvc, notifySvc, auditSvc, tracer)
	orderSvc := application.NewOrderService(r.orders, r.products, cartSvc, stockSvc, auditSvc, dispatcher, tracer)
	promoSvc := application.NewPromoService(r.promos, auditSvc)

	storeHandler := interfaces.NewStorefrontHandler(cartSvc, orderSvc, notifySvc, promoSvc, catalogSvc, flash)
	adminHandler := interfaces.NewAdminHandler(catalogSvc, orderSvc, promoSvc, auditSvc, flash)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Config:      cfg,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			storeHandler.RegisterRoutes(appCtx.Mux)
			adminHandler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: shutdown,
	})
}
