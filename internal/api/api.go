// internal/api/api.go
package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wastewatch-ai/wastewatch-go/internal/api/handlers"
	"github.com/wastewatch-ai/wastewatch-go/internal/api/middleware"
	"github.com/wastewatch-ai/wastewatch-go/internal/dataset"
	"github.com/wastewatch-ai/wastewatch-go/internal/intelligence"
	"github.com/wastewatch-ai/wastewatch-go/internal/service"
)

type Services struct {
	Assessment       *service.AssessmentService
	Advisor          intelligence.SurplusAdvisor
	Exporter         *dataset.Exporter
	DefaultBufferPct float64
	AITimeout        time.Duration
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Assessment != nil {
			assessmentHandler := handlers.NewAssessmentHandler(services.Assessment, services.Exporter, services.DefaultBufferPct)
			assessmentGroup := apiGroup.Group("/assessment")
			{
				assessmentGroup.POST("/run", assessmentHandler.RunAssessment)
				assessmentGroup.GET("/latest", assessmentHandler.GetLatest)
				assessmentGroup.GET("/report", assessmentHandler.GetReport)
			}
		}

		riskHandler := handlers.NewRiskHandler(services.DefaultBufferPct)
		apiGroup.POST("/risk/stockout", riskHandler.CheckStockout)

		if services.Advisor != nil {
			surplusHandler := handlers.NewSurplusHandler(services.Advisor, services.AITimeout)
			surplusGroup := apiGroup.Group("/surplus")
			{
				surplusGroup.POST("/analyze", surplusHandler.Analyze)
				surplusGroup.POST("/analyze/batch", surplusHandler.AnalyzeBatch)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
