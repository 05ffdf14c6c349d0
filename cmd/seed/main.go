package main

import (
	"context"
	"flag"
	"os"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
)

type seedProduct struct {
	SKU         string
	Name        string
	Description string
	Price       string
	Image       string
}

var demoProducts = []seedProduct{
	{SKU: "TEE-BLK-M", Name: "Cotton Tee Black M", Description: "Heavyweight cotton t-shirt.", Price: "24.00", Image: "/images/tee-black.png"},
	{SKU: "TEE-WHT-M", Name: "Cotton Tee White M", Description: "Heavyweight cotton t-shirt.", Price: "24.00", Image: "/images/tee-white.png"},
	{SKU: "MUG-CER-01", Name: "Ceramic Mug", Description: "350ml stoneware mug.", Price: "12.50", Image: "/images/mug.png"},
	{SKU: "BAG-TOTE-01", Name: "Canvas Tote", Description: "Everyday canvas tote bag.", Price: "18.90", Image: "/images/tote.png"},
	{SKU: "CAP-NVY-01", Name: "Navy Cap", Description: "Adjustable six-panel cap.", Price: "21.00", Image: "/images/cap.png"},
}

func main() {
	withAdmin := flag.Bool("admin", true, "同时初始化默认管理员")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	db, err := models.OpenDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns: cfg.Database.Pool.MaxIdleConns,
	}, false)
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewProductRepository(db)
	for i, item := range demoProducts {
		product := &models.Product{
			SKU:         item.SKU,
			Name:        item.Name,
			Description: item.Description,
			PriceAmount: models.MustMoney(item.Price),
			Image:       item.Image,
			IsActive:    true,
			SortOrder:   len(demoProducts) - i,
		}
		var count int64
		if err := db.Model(&models.Product{}).Where("sku = ?", item.SKU).Count(&count).Error; err != nil {
			stdLog.Fatalf("Failed to check product %s: %v", item.SKU, err)
		}
		if count > 0 {
			stdLog.Printf("Product already exists: %s", item.SKU)
			continue
		}
		if err := repo.Create(ctx, product); err != nil {
			stdLog.Printf("Failed to create product %s: %v", item.SKU, err)
			continue
		}
		stdLog.Printf("Created product: %s (%s)", item.SKU, item.Price)
	}

	if *withAdmin {
		if err := models.InitDefaultAdmin(db, os.Getenv("SC_DEFAULT_ADMIN_USERNAME"), os.Getenv("SC_DEFAULT_ADMIN_PASSWORD")); err != nil {
			stdLog.Printf("Failed to init admin: %v", err)
		}
	}
	stdLog.Printf("Seed completed")
}
