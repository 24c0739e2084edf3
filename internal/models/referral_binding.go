package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralBinding 推荐关系表
// 一个被推荐账户至多绑定一个代理账户。
type ReferralBinding struct {
	ID               uint           `gorm:"primarykey" json:"id"`                                      // 主键
	RefereeAccountID uint           `gorm:"uniqueIndex;not null" json:"referee_account_id"`            // 被推荐账户ID
	AgentAccountID   uint           `gorm:"not null;index" json:"agent_account_id"`                    // 代理账户ID
	CommissionRate   Money          `gorm:"type:decimal(10,4);not null;default:0" json:"commission_rate"` // 佣金比例（0-1 小数）
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt        time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (ReferralBinding) TableName() string {
	return "referral_bindings"
}
