package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/storelift/domainstack/api/handlers"
	"github.com/storelift/domainstack/api/middleware"
	"github.com/storelift/domainstack/internal/repository"
	"github.com/storelift/domainstack/internal/tracing"
	"github.com/storelift/domainstack/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	// setup handlers
	apiHandlers := handlers.InitHandlers(s)

	// Health check endpoint (no custom context needed)
	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-STORELIFT-API-KEY",
		ValidAPIKey: apikey,
	})

	// API group with version and custom context
	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TenantHeaderMiddleware())
	api.Use(middleware.UserIdMiddleware())
	api.Use(middleware.CustomContextMiddleware("domainstack"))
	api.Use(middleware.TracingMiddleware())
	{
		domains := api.Group("/domains")
		{
			domains.GET("", apiHandlers.Domains.ListDomains())
			domains.POST("", apiHandlers.Domains.AddDomain())
			domains.GET("/:id", apiHandlers.Domains.GetDomain())
			domains.PATCH("/:id", apiHandlers.Domains.UpdateDomain())
			domains.DELETE("/:id", apiHandlers.Domains.DeleteDomain())
			domains.GET("/:id/dns-records", apiHandlers.Domains.GetDNSRecords())
			domains.GET("/:id/verification-attempts", apiHandlers.Domains.ListVerificationAttempts())
			domains.POST("/:id/verify", apiHandlers.Domains.VerifyDomain())
			domains.POST("/:id/primary", apiHandlers.Domains.SetPrimaryDomain())
		}
	}
}
