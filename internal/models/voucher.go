package models

import (
	"time"

	"gorm.io/gorm"
)

// Voucher 兑换券表
// 状态迁移单向且终结：active→used、active→expired；条款字段为兑换时的奖励快照。
type Voucher struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                          // 主键
	VoucherNo          string         `gorm:"uniqueIndex;not null" json:"voucher_no"`                        // 券编号
	RewardID           uint           `gorm:"not null;index" json:"reward_id"`                               // 奖励ID
	AccountID          uint           `gorm:"not null;index" json:"account_id"`                              // 持有账户ID
	RedemptionKey      string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`               // 兑换幂等键
	Status             string         `gorm:"not null;default:'active';index" json:"status"`                 // 存储状态
	CostPoints         int64          `gorm:"not null" json:"cost_points"`                                   // 兑换扣减积分（快照）
	Type               string         `gorm:"type:varchar(10);not null" json:"type"`                         // 折扣类型（快照）
	Value              Money          `gorm:"type:decimal(20,2);not null" json:"value"`                      // 折扣数值（快照）
	MinOrderAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_amount"` // 使用门槛（快照）
	Stackable          bool           `gorm:"not null;default:false" json:"stackable"`                       // 是否可叠加（快照）
	MaxDiscountPercent Money          `gorm:"type:decimal(10,2);not null;default:0" json:"max_discount_percent"` // 最高折扣占比（快照）
	IssuedAt           time.Time      `gorm:"not null;index" json:"issued_at"`                               // 发放时间
	ExpiresAt          time.Time      `gorm:"not null;index" json:"expires_at"`                              // 过期时间
	UsedAt             *time.Time     `json:"used_at,omitempty"`                                             // 核销时间
	AppliedOrderID     string         `gorm:"type:varchar(64);index" json:"applied_order_id,omitempty"`      // 核销订单号
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}

// EffectiveStatus 计算生效状态：已过期的 active 券在读取时报告 expired
func (v Voucher) EffectiveStatus(now time.Time) string {
	if v.Status == "active" && now.After(v.ExpiresAt) {
		return "expired"
	}
	return v.Status
}
