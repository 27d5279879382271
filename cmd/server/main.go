package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/sankhya-backend-go/internal/analysis"
	"github.com/jengzang/sankhya-backend-go/internal/api"
	"github.com/jengzang/sankhya-backend-go/internal/config"
	"github.com/jengzang/sankhya-backend-go/internal/database"
	"github.com/jengzang/sankhya-backend-go/internal/middleware"
	"github.com/jengzang/sankhya-backend-go/internal/models"
	"github.com/jengzang/sankhya-backend-go/internal/repository"
	"github.com/jengzang/sankhya-backend-go/internal/service"
	"github.com/jengzang/sankhya-backend-go/internal/snapshot"
)

func main() {
	// 加载配置
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.InsecureAuth() {
		log.Println("WARNING: JWT_SECRET is the default and ADMIN_EMAIL/ADMIN_PASSWORD are unset; anyone can obtain an admin token")
	}
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	// 初始化服务
	store := snapshot.NewStore()
	regen := service.NewRegenerationService(service.RegenerationOptions{
		Sources:      cfg.Sources,
		ArtifactPath: cfg.ArtifactPath,
		ExportPath:   cfg.ExportPath,
		Timeout:      cfg.RegenerateTimeout,
	}, analysis.NewEngine(cfg.Engine), repository.NewRunRepository(database.GetDB()), store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 恢复上次快照，没有则立即生成
	restored, err := regen.Restore(ctx)
	if err != nil {
		log.Printf("Failed to restore snapshot: %v", err)
	}
	if !restored {
		if _, err := regen.Regenerate(ctx, models.TriggerStartup); err != nil {
			log.Printf("Initial regeneration failed, serving without snapshot: %v", err)
		}
	}

	// 定时重新生成
	if cfg.RegenerateSchedule != "" {
		stopSchedule, err := regen.StartSchedule(ctx, cfg.RegenerateSchedule)
		if err != nil {
			log.Fatal("Failed to start schedule:", err)
		}
		defer stopSchedule()
	}

	// 初始化路由
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()
	router := api.SetupRouter(api.Services{
		Dashboard:    service.NewDashboardService(store, cfg.Engine.Weights, cfg.CacheTTL),
		Regeneration: regen,
		Auth:         service.NewAuthService(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPassword, cfg.TokenTTL),
		Limiter:      limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RegenerateTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// 启动服务器
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	log.Println("Server exited")
}
