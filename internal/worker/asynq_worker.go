package worker

import (
	"context"
	"encoding/json"

	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/provider"
	"github.com/loyaltyclub-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskLevelUpNotify, c.handleLevelUpNotify)
	mux.HandleFunc(queue.TaskBonusClaimedNotify, c.handleBonusClaimedNotify)
	mux.HandleFunc(queue.TaskVoucherIssuedNotify, c.handleVoucherIssuedNotify)
	mux.HandleFunc(queue.TaskVoucherExpire, c.handleVoucherExpire)
}

func (c *Consumer) handleLevelUpNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_level_up_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LevelUpNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_level_up_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.AccountID == 0 {
		logger.Debugw("worker_level_up_notify_skip_invalid_payload", "account_id", payload.AccountID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_level_up_notify_skip_service_nil", "account_id", payload.AccountID)
		return nil
	}
	if err := c.NotificationService.NotifyLevelUp(ctx, payload.AccountID, payload.FromLevel, payload.ToLevel, payload.XP); err != nil {
		logger.Warnw("worker_level_up_notify_send_failed",
			"account_id", payload.AccountID,
			"from_level", payload.FromLevel,
			"to_level", payload.ToLevel,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleBonusClaimedNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_bonus_claimed_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BonusClaimedNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_bonus_claimed_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.AccountID == 0 {
		logger.Debugw("worker_bonus_claimed_notify_skip_invalid_payload", "account_id", payload.AccountID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_bonus_claimed_notify_skip_service_nil", "account_id", payload.AccountID)
		return nil
	}
	if err := c.NotificationService.NotifyBonusClaimed(ctx, payload.AccountID, payload.StreakDay, payload.Points); err != nil {
		logger.Warnw("worker_bonus_claimed_notify_send_failed",
			"account_id", payload.AccountID,
			"streak_day", payload.StreakDay,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleVoucherIssuedNotify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_voucher_issued_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.VoucherIssuedNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_voucher_issued_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.AccountID == 0 || payload.VoucherNo == "" {
		logger.Debugw("worker_voucher_issued_notify_skip_invalid_payload",
			"account_id", payload.AccountID,
			"voucher_no", payload.VoucherNo,
		)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_voucher_issued_notify_skip_service_nil", "account_id", payload.AccountID)
		return nil
	}
	if err := c.NotificationService.NotifyVoucherIssued(ctx, payload.AccountID, payload.VoucherNo); err != nil {
		logger.Warnw("worker_voucher_issued_notify_send_failed",
			"account_id", payload.AccountID,
			"voucher_no", payload.VoucherNo,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleVoucherExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_voucher_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.VoucherExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_voucher_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.VoucherID == 0 {
		logger.Debugw("worker_voucher_expire_skip_invalid_payload", "voucher_id", payload.VoucherID)
		return nil
	}
	if err := c.VoucherService.ExpireVoucher(payload.VoucherID); err != nil {
		logger.Warnw("worker_voucher_expire_failed", "voucher_id", payload.VoucherID, "error", err)
		return err
	}
	return nil
}
