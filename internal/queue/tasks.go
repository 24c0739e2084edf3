package queue

import (
	"encoding/json"

	"github.com/loyaltyclub-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskLevelUpNotify 等级提升通知任务
	TaskLevelUpNotify = constants.TaskLevelUpNotify
	// TaskBonusClaimedNotify 签到奖励通知任务
	TaskBonusClaimedNotify = constants.TaskBonusClaimedNotify
	// TaskVoucherIssuedNotify 券发放通知任务
	TaskVoucherIssuedNotify = constants.TaskVoucherIssuedNotify
	// TaskVoucherExpire 券到期处理任务
	TaskVoucherExpire = constants.TaskVoucherExpireSweep
)

// LevelUpNotifyPayload 等级提升通知任务载荷
type LevelUpNotifyPayload struct {
	AccountID uint   `json:"account_id"`
	FromLevel string `json:"from_level"`
	ToLevel   string `json:"to_level"`
	XP        int64  `json:"xp"`
}

// BonusClaimedNotifyPayload 签到奖励通知任务载荷
type BonusClaimedNotifyPayload struct {
	AccountID uint  `json:"account_id"`
	StreakDay int   `json:"streak_day"`
	Points    int64 `json:"points"`
}

// VoucherIssuedNotifyPayload 券发放通知任务载荷
type VoucherIssuedNotifyPayload struct {
	AccountID uint   `json:"account_id"`
	VoucherID uint   `json:"voucher_id"`
	VoucherNo string `json:"voucher_no"`
}

// VoucherExpirePayload 券到期处理任务载荷
type VoucherExpirePayload struct {
	VoucherID uint `json:"voucher_id"`
}

// NewLevelUpNotifyTask 创建等级提升通知任务
func NewLevelUpNotifyTask(payload LevelUpNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLevelUpNotify, body), nil
}

// NewBonusClaimedNotifyTask 创建签到奖励通知任务
func NewBonusClaimedNotifyTask(payload BonusClaimedNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBonusClaimedNotify, body), nil
}

// NewVoucherIssuedNotifyTask 创建券发放通知任务
func NewVoucherIssuedNotifyTask(payload VoucherIssuedNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoucherIssuedNotify, body), nil
}

// NewVoucherExpireTask 创建券到期处理任务
func NewVoucherExpireTask(payload VoucherExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoucherExpire, body), nil
}
