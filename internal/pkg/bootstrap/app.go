package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bookstore/internal/pkg/config"
	"bookstore/internal/pkg/logger"
	"bookstore/internal/pkg/nacos"
	"bookstore/internal/pkg/tracing"
	"bookstore/internal/pkg/utils"
)

// AppCtx 在注册路由时把通用组件递给各个服务。
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
	Cfg   *config.Config
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName string
	Port        int
	// RegisterHandlers 允许每个服务注册自己独特的 HTTP 路由和依赖
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在 HTTP 服务器关停前执行，用于关闭 Kafka writer、DB 连接等
	OnShutdown func(ctx context.Context)
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	cfg, err := config.Load()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to load config")
	}

	// Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// Nacos 注册；注册失败只降级告警，静态地址兜底仍然可用
	var namingClient *nacos.Client
	ip, err := utils.GetOutboundIP()
	if err != nil {
		logger.Logger().Fatal().Err(err).Msg("failed to get outbound IP address")
	}
	namingClient, err = nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		logger.Logger().Warn().Err(err).Msg("nacos unavailable, falling back to static service addresses")
		namingClient = nil
	} else if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger().Warn().Err(err).Msg("nacos registration failed")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient, Cfg: cfg})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger().Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger().Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger().Info().Msgf("shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 关停顺序：先摘流量，再停业务组件，最后停 HTTP 服务器和 tracer
	if namingClient != nil {
		if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.Logger().Error().Err(err).Msg("error deregistering from nacos")
		}
	}

	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down http server")
	}

	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger().Error().Err(err).Msg("error shutting down tracer provider")
	}

	logger.Logger().Info().Msgf("service %s gracefully shut down", info.ServiceName)
}
