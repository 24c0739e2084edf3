package models

import (
	"time"

	"gorm.io/gorm"
)

// ClubAccount 会员账户表
// PointsBalance 为账本流水的缓存汇总，永不为负；XP 除管理员调整外单调递增。
type ClubAccount struct {
	ID            uint           `gorm:"primarykey" json:"id"`                           // 主键
	UserID        uint           `gorm:"uniqueIndex;not null" json:"user_id"`            // 用户ID
	PointsBalance int64          `gorm:"not null;default:0" json:"points_balance"`       // 积分余额（缓存值）
	XP            int64          `gorm:"not null;default:0" json:"xp"`                   // 累计经验值
	Version       uint64         `gorm:"not null;default:0" json:"-"`                    // 余额版本号
	Status        string         `gorm:"not null;default:'active';index" json:"status"`  // 账户状态
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                        // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                 // 软删除时间
}

// TableName 指定表名
func (ClubAccount) TableName() string {
	return "club_accounts"
}
