package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-adp-insights/api/swagger"
	"github.com/noah-isme/sma-adp-insights/internal/handler"
	"github.com/noah-isme/sma-adp-insights/internal/middleware"
	"github.com/noah-isme/sma-adp-insights/internal/service"
	"github.com/noah-isme/sma-adp-insights/pkg/config"
	"github.com/noah-isme/sma-adp-insights/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-insights/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-insights/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, insights *handler.StudentInsightHandler, system *handler.MetricsHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", system.Health)
	r.GET("/ready", system.Ready)
	r.GET("/metrics", system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	students := api.Group("/students/:id/insights")
	students.GET("", insights.Overview)
	students.GET("/progress", insights.Progress)
	students.GET("/months", insights.Months)
	students.GET("/monthly", insights.Monthly)
	students.GET("/monthly/export", insights.ExportMonthly)
	students.GET("/feedback", insights.Feedback)
	students.DELETE("/cache", insights.Refresh)

	api.GET("/system/metrics", system.System)

	return r
}
