package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/jengzang/sankhya-backend-go/internal/analysis"
	"github.com/jengzang/sankhya-backend-go/internal/analysis/zones"
	"github.com/jengzang/sankhya-backend-go/internal/dataset"
)

// DefaultJWTSecret 未设置 JWT_SECRET 时使用的占位密钥
const DefaultJWTSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Port   string
	DBPath string

	// 数据源
	DataDir      string
	Sources      dataset.Sources
	ArtifactPath string
	ExportPath   string // 为空时不导出 XLSX

	// 认证
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	TokenTTL      time.Duration

	// 重新生成
	RegenerateSchedule string // cron 表达式，为空时禁用
	RegenerateTimeout  time.Duration

	// 限流与缓存
	RateLimit  int
	RateWindow time.Duration
	CacheTTL   time.Duration

	Engine analysis.Config
}

// Load 加载配置。存在 .env 文件时先载入，已设置的环境变量优先。
func Load() *Config {
	envFile := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("[Config] Failed to load %s: %v", envFile, err)
		} else {
			log.Printf("[Config] Loaded %s", envFile)
		}
	}

	dataDir := getEnv("DATA_DIR", "./data/sample")
	sources := dataset.SourcesFromDir(dataDir)
	sources.Demographic = getEnv("DEMOGRAPHIC_PATH", sources.Demographic)
	sources.Biometric = getEnv("BIOMETRIC_PATH", sources.Biometric)
	sources.Enrolment = getEnv("ENROLMENT_PATH", sources.Enrolment)
	sources.Centers = getEnv("CENTERS_PATH", sources.Centers)
	sources.History = getEnv("HISTORY_PATH", sources.History)

	engine := analysis.DefaultConfig()
	engine.Weights.Volume = getFloat("DSI_WEIGHT_VOLUME", engine.Weights.Volume)
	engine.Weights.Senior = getFloat("DSI_WEIGHT_SENIOR", engine.Weights.Senior)

	engine.Zones.BlueZoneMode = zones.Mode(getEnv("BLUE_ZONE_MODE", string(engine.Zones.BlueZoneMode)))
	engine.Zones.BlueZoneCutoff = getFloat("BLUE_ZONE_CUTOFF", zones.DefaultCutoff(true, engine.Zones.BlueZoneMode))
	engine.Zones.DEZMode = zones.Mode(getEnv("DEZ_MODE", string(engine.Zones.DEZMode)))
	engine.Zones.DEZCutoff = getFloat("DEZ_CUTOFF", zones.DefaultCutoff(false, engine.Zones.DEZMode))

	engine.Forecast.Horizon = getInt("FORECAST_HORIZON", engine.Forecast.Horizon)
	engine.Forecast.Window = getInt("FORECAST_WINDOW", engine.Forecast.Window)

	engine.Realloc.LowUtilization = getFloat("REALLOC_LOW", engine.Realloc.LowUtilization)
	engine.Realloc.HighUtilization = getFloat("REALLOC_HIGH", engine.Realloc.HighUtilization)
	engine.Realloc.TargetUtilization = getFloat("REALLOC_TARGET", engine.Realloc.TargetUtilization)
	engine.Realloc.MaxTransferKm = getFloat("REALLOC_MAX_KM", engine.Realloc.MaxTransferKm)

	port := getEnv("PORT", ":8080")
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		port = ":" + port
	}

	return &Config{
		Port:   port,
		DBPath: getEnv("DB_PATH", "./data/sankhya.db"),

		DataDir:      dataDir,
		Sources:      sources,
		ArtifactPath: getEnv("ARTIFACT_PATH", filepath.Join("data", "sankhya_data.json")),
		ExportPath:   getEnv("EXPORT_PATH", ""),

		JWTSecret:     getEnv("JWT_SECRET", DefaultJWTSecret),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		TokenTTL:      getDuration("TOKEN_TTL", 24*time.Hour),

		RegenerateSchedule: getEnv("REGENERATE_SCHEDULE", ""),
		RegenerateTimeout:  getDuration("REGENERATE_TIMEOUT", 2*time.Minute),

		RateLimit:  getInt("RATE_LIMIT", 100),
		RateWindow: getDuration("RATE_WINDOW", time.Minute),
		CacheTTL:   getDuration("CACHE_TTL", 5*time.Minute),

		Engine: engine,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.ArtifactPath == "" {
		errs = append(errs, errors.New("ARTIFACT_PATH must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %v", c.TokenTTL))
	}
	if c.RegenerateTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REGENERATE_TIMEOUT must be positive, got %v", c.RegenerateTimeout))
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT and RATE_WINDOW must be positive"))
	}
	if c.RegenerateSchedule != "" {
		if _, err := cron.ParseStandard(c.RegenerateSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid REGENERATE_SCHEDULE %q: %w", c.RegenerateSchedule, err))
		}
	}
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// InsecureAuth 报告是否同时使用默认密钥和开放登录，此时任何人都能获取管理员令牌
func (c *Config) InsecureAuth() bool {
	return c.JWTSecret == DefaultJWTSecret && c.AdminEmail == "" && c.AdminPassword == ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] Invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		log.Printf("[Config] Invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[Config] Invalid %s=%q, using default %v", key, v, fallback)
		return fallback
	}
	return d
}
