package main

import (
	"github.com/loyaltyclub-next/internal/config"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"

	"github.com/shopspring/decimal"
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
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认等级阶梯
	if err := models.InitDefaultLevels(); err != nil {
		stdLog.Fatalf("Failed to seed levels: %v", err)
	}

	// 示例奖励
	rewards := []models.Reward{
		{
			Name:           "满 50 减 5 优惠券",
			Category:       "discount",
			CostPoints:     200,
			Type:           "fixed",
			Value:          models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
			MinOrderAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			ValidDays:      30,
			Status:         "active",
		},
		{
			Name:               "全场 9 折券",
			Category:           "discount",
			CostPoints:         500,
			Type:               "percent",
			Value:              models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
			MinOrderAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			ValidDays:          14,
			MaxDiscountPercent: models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
			Status:             "active",
		},
		{
			Name:       "新人尝鲜券",
			Category:   "welcome",
			CostPoints: 50,
			Type:       "fixed",
			Value:      models.NewMoneyFromDecimal(decimal.NewFromInt(2)),
			ValidDays:  7,
			UsageLimit: 1,
			Status:     "active",
		},
	}

	for _, reward := range rewards {
		var existing models.Reward
		if err := models.DB.Where("name = ?", reward.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&reward).Error; err != nil {
				stdLog.Printf("Failed to create reward %s: %v", reward.Name, err)
			} else {
				stdLog.Printf("Created reward: %s", reward.Name)
			}
		} else {
			stdLog.Printf("Reward already exists: %s", reward.Name)
		}
	}

	stdLog.Printf("Seed finished")
}
