package models

import (
	"time"
)

// ClubLevel 会员等级表
// 各等级 XP 区间有序、不重叠且覆盖 [0, +∞)；NextLevelXP 为空表示最高等级。
type ClubLevel struct {
	ID                   uint      `gorm:"primarykey" json:"id"`                                             // 主键
	Code                 string    `gorm:"uniqueIndex;not null" json:"code"`                                 // 等级标识（silver/gold/platinum）
	Name                 string    `gorm:"not null" json:"name"`                                             // 等级名称
	MinXP                int64     `gorm:"not null;uniqueIndex" json:"min_xp"`                               // 区间下界（含）
	NextLevelXP          *int64    `json:"next_level_xp"`                                                    // 下一等级门槛（空为最高级）
	DailyBonusMultiplier Money     `gorm:"type:decimal(10,2);not null;default:1" json:"daily_bonus_multiplier"` // 每日签到倍率
	CashbackPercent      Money     `gorm:"type:decimal(10,2);not null;default:0" json:"cashback_percent"`    // 消费返点百分比
	CreatedAt            time.Time `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt            time.Time `gorm:"index" json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (ClubLevel) TableName() string {
	return "club_levels"
}
