package models

import (
	"strings"

	"github.com/loyaltyclub-next/internal/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// InitDefaultAdmin 初始化默认管理员账号
func InitDefaultAdmin(username, password string) error {
	var count int64
	DB.Model(&Admin{}).Count(&count)
	if count > 0 {
		return nil
	}

	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := Admin{
		Username:     username,
		PasswordHash: string(hash),
		IsSuper:      strings.EqualFold(strings.TrimSpace(username), "admin"),
	}

	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "username", username)
		logger.Warnw("default_admin_password_change_required", "username", username)
	} else {
		logger.Warnw("default_admin_created", "username", username, "password_hidden", true)
	}
	return nil
}

// InitDefaultLevels 初始化默认会员等级（已存在则跳过）
func InitDefaultLevels() error {
	var count int64
	DB.Model(&ClubLevel{}).Count(&count)
	if count > 0 {
		return nil
	}

	goldMin := int64(500)
	platinumMin := int64(1500)
	levels := []ClubLevel{
		{
			Code:                 "silver",
			Name:                 "白银会员",
			MinXP:                0,
			NextLevelXP:          &goldMin,
			DailyBonusMultiplier: NewMoneyFromDecimal(decimal.NewFromInt(1)),
			CashbackPercent:      NewMoneyFromDecimal(decimal.NewFromInt(1)),
		},
		{
			Code:                 "gold",
			Name:                 "黄金会员",
			MinXP:                goldMin,
			NextLevelXP:          &platinumMin,
			DailyBonusMultiplier: NewMoneyFromDecimal(decimal.NewFromFloat(1.5)),
			CashbackPercent:      NewMoneyFromDecimal(decimal.NewFromInt(2)),
		},
		{
			Code:                 "platinum",
			Name:                 "铂金会员",
			MinXP:                platinumMin,
			NextLevelXP:          nil,
			DailyBonusMultiplier: NewMoneyFromDecimal(decimal.NewFromInt(2)),
			CashbackPercent:      NewMoneyFromDecimal(decimal.NewFromInt(3)),
		},
	}
	if err := DB.Create(&levels).Error; err != nil {
		return err
	}
	logger.Infow("default_club_levels_created", "count", len(levels))
	return nil
}
