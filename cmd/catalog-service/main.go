package main

import (
	"net/http"

	"bookstore/internal/pkg/bootstrap"
	"bookstore/internal/pkg/database"
	"bookstore/internal/pkg/logger"
	"bookstore/internal/service/catalog/application"
	"bookstore/internal/service/catalog/infrastructure"
	"bookstore/internal/service/catalog/interfaces"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const serviceName = "catalog-service"

// main 函数是应用的"组装根" (Composition Root)。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8082,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Cfg
			tracer := otel.Tracer(serviceName)

			db, err := database.OpenMySQL(cfg.Infra.Mysql.DSN)
			if err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to connect to mysql")
			}
			if err := db.AutoMigrate(&infrastructure.BookModel{}); err != nil {
				logger.Logger().Fatal().Err(err).Msg("failed to migrate book schema")
			}

			repo := infrastructure.NewGormBookRepository(db)
			service := application.NewCatalogService(repo, tracer)

			handler := interfaces.NewCatalogHandler(service)
			handler.RegisterRoutes(appCtx.Mux)
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
		},
	})
}
