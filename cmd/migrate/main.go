package main

import (
	"flag"
	"strings"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/migrations"
)

func main() {
	var direction string
	var steps int
	var dsn string
	flag.StringVar(&direction, "direction", migrations.DirectionUp, "迁移方向: up / down")
	flag.IntVar(&steps, "steps", 0, "迁移步数，0 表示全部")
	flag.StringVar(&dsn, "dsn", "", "postgres 连接串，默认读取 database.dsn")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if strings.TrimSpace(dsn) == "" {
		dsn = cfg.Database.DSN
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if driver != "postgres" && driver != "postgresql" && !strings.HasPrefix(dsn, "postgres") {
		stdLog.Fatalf("SQL 迁移仅支持 postgres，当前驱动: %s（sqlite 请使用 database.auto_migrate）", cfg.Database.Driver)
	}

	if err := migrations.Run(dsn, direction, steps); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}
}
