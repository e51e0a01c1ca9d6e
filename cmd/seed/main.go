package main

import (
	"errors"
	"os"

	"github.com/cupom-store/internal/config"
	"github.com/cupom-store/internal/constants"
	"github.com/cupom-store/internal/logger"
	"github.com/cupom-store/internal/models"

	"gorm.io/gorm"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Slug: "flores", Name: "Flores", SortOrder: 1},
		{Slug: "presentes", Name: "Presentes", SortOrder: 2},
		{Slug: "chocolates", Name: "Chocolates", SortOrder: 3},
	}
	categoryIDs := map[string]uint{}
	for _, cat := range categories {
		var existing models.Category
		err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error
		switch {
		case err == nil:
			stdLog.Printf("Category already exists: %s", cat.Slug)
			categoryIDs[cat.Slug] = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
				continue
			}
			stdLog.Printf("Created category: %s", cat.Slug)
			categoryIDs[cat.Slug] = cat.ID
		default:
			stdLog.Printf("Failed to load category %s: %v", cat.Slug, err)
		}
	}

	// 添加商品：一个仅特殊日可售，一个带特殊日价格
	specialPrice := models.MustMoney("119.90")
	products := []models.Product{
		{
			CategoryID:  idPtr(categoryIDs["flores"]),
			Name:        "Buquê de Rosas Vermelhas",
			Description: "12 rosas colombianas com embalagem de presente",
			ImageURL:    "https://images.unsplash.com/photo-1518895949257-7621c3c786d7?w=800",
			Price:       models.MustMoney("149.90"),
			Stock:       40,
			IsActive:    true,
		},
		{
			CategoryID:   idPtr(categoryIDs["chocolates"]),
			Name:         "Cesta de Chocolates Finos",
			Description:  "Seleção de trufas e bombons artesanais",
			ImageURL:     "https://images.unsplash.com/photo-1549007994-cb92caebd54b?w=800",
			Price:        models.MustMoney("139.90"),
			SpecialPrice: &specialPrice,
			Stock:        25,
			IsActive:     true,
		},
		{
			CategoryID:     idPtr(categoryIDs["presentes"]),
			Name:           "Kit Edição Dia das Mães",
			Description:    "Caneca personalizada, vela aromática e cartão",
			ImageURL:       "https://images.unsplash.com/photo-1513201099705-a9746e1e201f?w=800",
			Price:          models.MustMoney("89.90"),
			Stock:          15,
			SpecialDayOnly: true,
			IsActive:       true,
		},
		{
			CategoryID:  idPtr(categoryIDs["presentes"]),
			Name:        "Caneca de Porcelana",
			Description: "Caneca branca 325ml",
			Price:       models.MustMoney("39.90"),
			Stock:       100,
			IsActive:    true,
		},
	}
	for _, product := range products {
		var count int64
		if err := models.DB.Model(&models.Product{}).Where("name = ?", product.Name).Count(&count).Error; err != nil {
			stdLog.Printf("Failed to check product %s: %v", product.Name, err)
			continue
		}
		if count > 0 {
			stdLog.Printf("Product already exists: %s", product.Name)
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			stdLog.Printf("Failed to create product %s: %v", product.Name, err)
			continue
		}
		stdLog.Printf("Created product: %s", product.Name)
	}

	// 添加券种
	couponTypes := []models.CouponType{
		{Name: "Cupom 10%", Description: "10% de desconto em um pedido no dia especial", DiscountPercent: 10, Price: models.MustMoney("4.90"), ValidityDays: 30, IsActive: true},
		{Name: "Cupom 20%", Description: "20% de desconto em um pedido no dia especial", DiscountPercent: 20, Price: models.MustMoney("9.90"), ValidityDays: 30, IsActive: true},
		{Name: "Cupom 30%", Description: "30% de desconto em um pedido no dia especial", DiscountPercent: 30, Price: models.MustMoney("14.90"), ValidityDays: 15, IsActive: true},
	}
	for _, couponType := range couponTypes {
		var count int64
		if err := models.DB.Model(&models.CouponType{}).Where("name = ?", couponType.Name).Count(&count).Error; err != nil {
			stdLog.Printf("Failed to check coupon type %s: %v", couponType.Name, err)
			continue
		}
		if count > 0 {
			stdLog.Printf("Coupon type already exists: %s", couponType.Name)
			continue
		}
		if err := models.DB.Create(&couponType).Error; err != nil {
			stdLog.Printf("Failed to create coupon type %s: %v", couponType.Name, err)
			continue
		}
		stdLog.Printf("Created coupon type: %s", couponType.Name)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin(os.Getenv("LOJA_DEFAULT_ADMIN_USERNAME"), os.Getenv("LOJA_DEFAULT_ADMIN_PASSWORD")); err != nil {
		stdLog.Printf("Failed to create default admin: %v", err)
	}

	// 演示用户
	demoEmail := "cliente@example.com"
	var userCount int64
	if err := models.DB.Model(&models.User{}).Where("email = ?", demoEmail).Count(&userCount).Error; err != nil {
		stdLog.Printf("Failed to check demo user: %v", err)
	} else if userCount == 0 {
		hash, err := models.NewPasswordHash("cliente123")
		if err != nil {
			stdLog.Fatalf("Failed to hash demo password: %v", err)
		}
		user := models.User{
			Email:        demoEmail,
			PasswordHash: hash,
			Name:         "Cliente Demo",
			CPF:          "52998224725",
			Locale:       constants.LocalePtBR,
			Status:       constants.UserStatusActive,
		}
		if err := models.DB.Create(&user).Error; err != nil {
			stdLog.Printf("Failed to create demo user: %v", err)
		} else {
			stdLog.Printf("Created demo user: %s", demoEmail)
		}
	}

	stdLog.Printf("Seed finished")
}

func idPtr(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}
