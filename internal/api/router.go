package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sankhya-backend-go/internal/handler"
	"github.com/jengzang/sankhya-backend-go/internal/middleware"
	"github.com/jengzang/sankhya-backend-go/internal/service"
)

// Services 路由依赖的服务
type Services struct {
	Dashboard    *service.DashboardService
	Regeneration *service.RegenerationService
	Auth         *service.AuthService

	// Limiter 由调用方创建并负责 Stop
	Limiter *middleware.RateLimiter
}

// SetupRouter 设置路由
func SetupRouter(svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger("/health"))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		_, err := svc.Dashboard.SnapshotInfo()
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Sankhya Backend API is running",
			"snapshot": err == nil,
		})
	})

	dashboard := handler.NewDashboardHandler(svc.Dashboard)
	auth := handler.NewAuthHandler(svc.Auth)
	admin := handler.NewAdminHandler(svc.Regeneration)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(svc.Limiter))
	{
		// 登录
		api.POST("/auth/login", auth.Login)

		// DSI 公式与仪表盘
		api.GET("/dsi/formula", dashboard.GetFormula)
		api.GET("/dashboard/summary", dashboard.GetNationalSummary)
		api.GET("/dashboard/stressed-districts", dashboard.GetStressedDistricts)

		// 区县
		districts := api.Group("/districts/:state/:district")
		{
			districts.GET("", dashboard.GetDistrict)
			districts.GET("/forecast", dashboard.GetDistrictForecast)
		}

		// 省级
		states := api.Group("/states/:state")
		{
			states.GET("/summary", dashboard.GetStateSummary)
			states.GET("/forecast", dashboard.GetStateForecast)
		}

		api.GET("/forecasts/national", dashboard.GetNationalForecast)
		api.GET("/zones", dashboard.GetZones)

		// 资源调配
		resources := api.Group("/resources")
		{
			resources.GET("/centers", dashboard.GetCenters)
			resources.GET("/reallocation", dashboard.GetReallocation)
			resources.GET("/needs", dashboard.GetNeeds)
		}

		api.GET("/anomalies", dashboard.GetAnomalies)
		api.GET("/snapshot", dashboard.GetSnapshot)
		api.GET("/export/report.xlsx", dashboard.ExportReport)

		// 管理接口（需要登录）
		adminGroup := api.Group("/admin")
		adminGroup.Use(middleware.Auth(svc.Auth))
		{
			adminGroup.POST("/regenerate", admin.Regenerate)
			adminGroup.GET("/runs", admin.ListRuns)
		}
	}

	return r
}
