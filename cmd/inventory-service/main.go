package main

import (
	"context"

	"bookstore/internal/pkg/bootstrap"
	"bookstore/internal/pkg/database"
	"bookstore/internal/pkg/logger"
	"bookstore/internal/pkg/mq"
	redispkg "bookstore/internal/pkg/redis"
	"bookstore/internal/pkg/zookeeper"
	"bookstore/internal/service/inventory/application"
	"bookstore/internal/service/inventory/domain/port"
	"bookstore/internal/service/inventory/infrastructure"
	"bookstore/internal/service/inventory/interfaces"

	"go.opentelemetry.io/otel"
)

const serviceName = "inventory-service"

// main 函数是应用的"组装根" (Composition Root)。
// Redis 缓存和 ZooKeeper 锁都是可选依赖：连不上就降级运行，
// 台账的正确性只依赖 MySQL 的条件写。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Cfg
			tracer := otel.Tracer(serviceName)

			db, err := database.OpenMySQL(cfg.Infra.Mysql.DSN)
			if err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := db.AutoMigrate(&infrastructure.StockModel{}); err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to migrate stock schema")
			}
			repo := infrastructure.NewGormStockRepository(db)

			var cache port.SnapshotCache
			if redisClient, err := redispkg.NewClient(context.Background(), cfg.Infra.Redis.Addr); err != nil {
				logger.Logger().Warn().Err(err).Msg("redis unavailable, running without snapshot cache")
			} else {
				cache = infrastructure.NewSnapshotRedisCache(redisClient)
			}

			var locker port.AdminLocker
			if zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers); err != nil {
				logger.Logger().Warn().Err(err).Msg("zookeeper unavailable, admin operations will not be serialized across instances")
			} else {
				locker = infrastructure.NewZkAdminLocker(zkConn)
			}

			lowStockWriter := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.App.Topics.LowStock)
			notifier := infrastructure.NewLowStockKafkaAdapter(lowStockWriter)

			service := application.NewInventoryService(repo, cache, locker, notifier, tracer, cfg.App.DeductMaxRetries)

			handler := interfaces.NewStockHandler(service)
			handler.RegisterRoutes(appCtx.Mux)

			onShutdown = func(ctx context.Context) {
				lowStockWriter.Close()
			}
		},
		OnShutdown: func(ctx context.Context) {
			if onShutdown != nil {
				onShutdown(ctx)
			}
		},
	})
}

var onShutdown func(context.Context)
