package models

import (
	"time"

	"gorm.io/gorm"
)

// AgentEarning 代理佣金收益表
// 同一代理同一订单最多产生一条收益记录；paid 为终态。
type AgentEarning struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                                          // 主键
	AgentAccountID uint           `gorm:"not null;index;index:idx_agent_earning_unique,unique" json:"agent_account_id"` // 代理账户ID
	OrderID        string         `gorm:"type:varchar(64);not null;index:idx_agent_earning_unique,unique" json:"order_id"` // 外部订单号
	OrderAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`                     // 订单金额
	Rate           Money          `gorm:"type:decimal(10,4);not null;default:0" json:"rate"`                             // 佣金比例快照（0-1 小数）
	Amount         int64          `gorm:"not null" json:"amount"`                                                        // 佣金积分
	Status         string         `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`               // 状态（pending/paid）
	PaidAt         *time.Time     `gorm:"index" json:"paid_at,omitempty"`                                                // 结算时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                                // 软删除时间
}

// TableName 指定表名
func (AgentEarning) TableName() string {
	return "agent_earnings"
}
