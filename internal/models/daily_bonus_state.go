package models

import (
	"time"
)

// DailyBonusState 每日签到状态表
// 生效状态在读取时结合 NextClaimAt 惰性计算，无需后台定时器。
type DailyBonusState struct {
	ID            uint       `gorm:"primarykey" json:"id"`                            // 主键
	AccountID     uint       `gorm:"uniqueIndex;not null" json:"account_id"`          // 账户ID
	StreakDay     int        `gorm:"not null;default:1" json:"streak_day"`            // 连续签到天数（1-7 循环）
	Status        string     `gorm:"not null;default:'available'" json:"status"`      // 存储状态
	LastClaimedAt *time.Time `json:"last_claimed_at"`                                 // 上次领取时间
	NextClaimAt   *time.Time `gorm:"index" json:"next_claim_at"`                      // 下次可领取时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                         // 创建时间
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`                         // 更新时间
}

// TableName 指定表名
func (DailyBonusState) TableName() string {
	return "daily_bonus_states"
}
