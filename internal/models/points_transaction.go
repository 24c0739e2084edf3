package models

import (
	"time"
)

// PointsTransaction 积分账本流水表
// 只追加不修改；账户余额必须等于该账户全部流水 Amount 之和。
type PointsTransaction struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                                     // 主键
	AccountID      uint      `gorm:"not null;index;index:idx_points_txn_idem,unique" json:"account_id"`                        // 账户ID
	Amount         int64     `gorm:"not null" json:"amount"`                                                                   // 带符号积分变动
	Type           string    `gorm:"type:varchar(10);not null;index" json:"type"`                                              // 类型（credit/debit）
	Reason         string    `gorm:"type:varchar(32);not null;index" json:"reason"`                                            // 变动原因
	BalanceBefore  int64     `gorm:"not null;default:0" json:"balance_before"`                                                 // 变动前余额
	BalanceAfter   int64     `gorm:"not null;default:0" json:"balance_after"`                                                  // 变动后余额
	IdempotencyKey string    `gorm:"type:varchar(128);not null;index:idx_points_txn_idem,unique" json:"idempotency_key"`       // 幂等键（同账户唯一）
	RelatedOrderID string    `gorm:"type:varchar(64);index" json:"related_order_id,omitempty"`                                 // 关联外部订单号
	Remark         string    `gorm:"type:varchar(255)" json:"remark,omitempty"`                                                // 备注
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                                                  // 创建时间
}

// TableName 指定表名
func (PointsTransaction) TableName() string {
	return "points_transactions"
}
