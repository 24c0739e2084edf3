package constants

// 队列名称
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskLevelUpNotify       = "club:level_up"
	TaskBonusClaimedNotify  = "club:bonus_claimed"
	TaskVoucherIssuedNotify = "club:voucher_issued"
	TaskVoucherExpireSweep  = "club:voucher_expire"
)

// 账户状态
const (
	AccountStatusActive = "active"
	AccountStatusFrozen = "frozen"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 积分流水类型
const (
	PointsTxnTypeCredit = "credit"
	PointsTxnTypeDebit  = "debit"
)

// 积分流水原因
const (
	PointsReasonBonus              = "bonus"
	PointsReasonRedemption         = "redemption"
	PointsReasonReferralCommission = "referral_commission"
	PointsReasonOrderCashback      = "order_cashback"
	PointsReasonAdminAdjustment    = "admin_adjustment"
	PointsReasonExpiryReversal     = "expiry_reversal"
)

// ValidPointsReason 判断流水原因是否在枚举内
func ValidPointsReason(reason string) bool {
	switch reason {
	case PointsReasonBonus, PointsReasonRedemption, PointsReasonReferralCommission,
		PointsReasonOrderCashback, PointsReasonAdminAdjustment, PointsReasonExpiryReversal:
		return true
	}
	return false
}

// 每日签到存储状态（冷却到期后在读取时按 available 处理）
const (
	BonusStatusAvailable = "available"
	BonusStatusCooldown  = "cooldown"
)

// 奖励类型
const (
	RewardTypeFixed   = "fixed"
	RewardTypePercent = "percent"
)

// 奖励状态
const (
	RewardStatusActive    = "active"
	RewardStatusWithdrawn = "withdrawn"
)

// 兑换券状态（存储值；生效状态在读取时结合过期时间计算）
const (
	VoucherStatusActive  = "active"
	VoucherStatusUsed    = "used"
	VoucherStatusExpired = "expired"
)

// 代理收益状态
const (
	AgentEarningStatusPending = "pending"
	AgentEarningStatusPaid    = "paid"
)

// 订单事件类型（外部订单系统回调）
const (
	OrderEventPaid      = "order.paid"
	OrderEventCompleted = "order.completed"
)

// 默认等级
const (
	LevelSilver   = "silver"
	LevelGold     = "gold"
	LevelPlatinum = "platinum"
)

// 每日签到周期奖励（第 1..7 天的基础积分）
var DailyBonusCycle = [7]int64{10, 15, 20, 25, 30, 40, 50}
