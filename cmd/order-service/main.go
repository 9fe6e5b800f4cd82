package main

import (
	"context"

	"bookstore/internal/pkg/bootstrap"
	"bookstore/internal/pkg/database"
	"bookstore/internal/pkg/httpclient"
	"bookstore/internal/pkg/logger"
	"bookstore/internal/pkg/mq"
	"bookstore/internal/service/order/application"
	"bookstore/internal/service/order/domain/port"
	"bookstore/internal/service/order/infrastructure"
	"bookstore/internal/service/order/infrastructure/adapter"
	"bookstore/internal/service/order/infrastructure/rule"
	"bookstore/internal/service/order/interfaces"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

const serviceName = "order-service"

// main 函数是应用的"组装根" (Composition Root)：
// 创建并组装所有依赖项，然后交给 bootstrap 启动。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8081,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Cfg
			tracer := otel.Tracer(serviceName)

			db, err := database.OpenMySQL(cfg.Infra.Mysql.DSN)
			if err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := db.AutoMigrate(&infrastructure.OrderModel{}); err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to migrate order schema")
			}
			orderRepo := infrastructure.NewGormOrderRepository(db)

			client := httpclient.NewClient(tracer, appCtx.Nacos, cfg.App.Services)
			pricing := adapter.NewPricingHTTPAdapter(client)
			inventory := adapter.NewInventoryHTTPAdapter(client)

			writer := mq.NewWriter(cfg.Infra.Kafka.Brokers, cfg.App.Topics.OrderEvents)
			events := adapter.NewOrderEventsKafkaAdapter(writer)

			var policy port.PlacementPolicy
			if cfg.App.PlacementPolicy != "" {
				policy, err = rule.NewCELPlacementPolicy(cfg.App.PlacementPolicy)
				if err != nil {
					logger.Logger().Fatal().Err(err).Msg("failed to compile placement policy")
				}
			}

			service := application.NewOrderApplicationService(
				orderRepo, pricing, inventory, events, policy, tracer, cfg.App.RemoteCallTimeout.Std())

			handler := interfaces.NewOrderHandler(service)
			handler.RegisterRoutes(appCtx.Mux)

			// 实时推送通道：消费订单事件并广播给 WebSocket 客户端
			reader := interfaces.NewOrderEventReader(cfg.Infra.Kafka.Brokers, cfg.App.Topics.OrderEvents, uuid.New().String())
			hub := interfaces.NewOrderEventHub(reader)
			hubCtx, stopHub := context.WithCancel(context.Background())
			go hub.Run(hubCtx)
			appCtx.Mux.HandleFunc("/ws/orders", hub.HandleWS)

			shutdownables = append(shutdownables, func(ctx context.Context) {
				stopHub()
				hub.Close()
				writer.Close()
			})
		},
		OnShutdown: func(ctx context.Context) {
			for _, fn := range shutdownables {
				fn(ctx)
			}
		},
	})
}

var shutdownables []func(context.Context)
