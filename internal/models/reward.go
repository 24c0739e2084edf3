package models

import (
	"time"

	"gorm.io/gorm"
)

// Reward 奖励目录表
// 已发券引用的条款在券上快照，编辑仅影响后续兑换。
type Reward struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Name               string         `gorm:"not null" json:"name"`                                          // 奖励名称
	Category           string         `gorm:"type:varchar(32);not null;index" json:"category"`               // 分类
	CostPoints         int64          `gorm:"not null" json:"cost_points"`                                   // 兑换所需积分
	Type               string         `gorm:"type:varchar(10);not null" json:"type"`                         // 折扣类型（fixed/percent）
	Value              Money          `gorm:"type:decimal(20,2);not null" json:"value"`                      // 折扣数值（固定金额或百分比）
	MinOrderAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_amount"` // 使用门槛（0 表示不限制）
	ValidDays          int            `gorm:"not null;default:30" json:"valid_days"`                         // 券有效天数
	Stackable          bool           `gorm:"not null;default:false" json:"stackable"`                       // 是否可叠加
	UsageLimit         int            `gorm:"not null;default:0" json:"usage_limit"`                         // 每账户兑换上限（0 表示不限制）
	MaxDiscountPercent Money          `gorm:"type:decimal(10,2);not null;default:0" json:"max_discount_percent"` // 单笔最高折扣占比（0 表示不限制）
	Status             string         `gorm:"not null;default:'active';index" json:"status"`                 // 状态
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (Reward) TableName() string {
	return "rewards"
}
