package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/shopcore-next/internal/app"
	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	printStartupBanner(cfg)

	if isWeakSecret(cfg.JWT.SecretKey) {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	db, err := models.OpenDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode != "release")
	if err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// postgres 生产环境使用 cmd/migrate 管理结构，auto_migrate 供本地与 sqlite 使用
	if cfg.Database.AutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			stdLog.Fatalf("数据库迁移失败: %v", err)
		}
	}

	// 初始化默认管理员账号
	defaultAdminUser := os.Getenv("SC_DEFAULT_ADMIN_USERNAME")
	defaultAdminPass := os.Getenv("SC_DEFAULT_ADMIN_PASSWORD")
	if cfg.Server.Mode == "release" && defaultAdminPass == "" {
		stdLog.Printf("警告: 未设置 SC_DEFAULT_ADMIN_PASSWORD，已跳过默认管理员初始化")
	} else if err := models.InitDefaultAdmin(db, defaultAdminUser, defaultAdminPass); err != nil {
		stdLog.Printf("警告: 初始化默认管理员失败: %v", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		DB:      db,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner(cfg *config.Config) {
	title := color.New(color.FgHiMagenta, color.Bold)
	info := color.New(color.FgCyan)
	dim := color.New(color.Faint)

	title.Println("┌────────────────────────────────────────────┐")
	title.Printf("│  %-42s│\n", "ShopCore API")
	title.Println("└────────────────────────────────────────────┘")
	info.Printf("• version:  %s\n", cfg.App.Version)
	info.Printf("• listen:   %s:%s\n", cfg.Server.Host, cfg.Server.Port)
	info.Printf("• database: %s\n", cfg.Database.Driver)
	info.Printf("• queue:    %t\n", cfg.Queue.Enabled)
	dim.Println("----------------------------------------------")
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key")
}
