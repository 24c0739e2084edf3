package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/queue"
	"github.com/loyaltyclub-next/internal/repository"

	"gorm.io/gorm"
)

// RedemptionService 奖励兑换服务
// 扣减积分与发券在同一事务内完成，兑换幂等键保证重试不重复扣分
type RedemptionService struct {
	rewardRepo  repository.RewardRepository
	voucherRepo repository.VoucherRepository
	ledgerRepo  repository.LedgerRepository
	ledgerSvc   *LedgerService
	queueClient *queue.Client
	clock       Clock
}

// RedeemInput 兑换输入
type RedeemInput struct {
	UserID        uint
	RewardID      uint
	RedemptionKey string
}

// RedeemResult 兑换结果
type RedeemResult struct {
	Voucher     *models.Voucher
	Account     *models.ClubAccount
	Transaction *models.PointsTransaction
	Replayed    bool
}

// NewRedemptionService 创建兑换服务
func NewRedemptionService(
	rewardRepo repository.RewardRepository,
	voucherRepo repository.VoucherRepository,
	ledgerRepo repository.LedgerRepository,
	ledgerSvc *LedgerService,
	queueClient *queue.Client,
	clock Clock,
) *RedemptionService {
	if clock == nil {
		clock = RealClock()
	}
	return &RedemptionService{
		rewardRepo:  rewardRepo,
		voucherRepo: voucherRepo,
		ledgerRepo:  ledgerRepo,
		ledgerSvc:   ledgerSvc,
		queueClient: queueClient,
		clock:       clock,
	}
}

// Redeem 用积分兑换奖励并发券
func (s *RedemptionService) Redeem(input RedeemInput) (*RedeemResult, error) {
	key := strings.TrimSpace(input.RedemptionKey)
	if key == "" {
		return nil, ErrRedemptionKeyInvalid
	}
	if input.RewardID == 0 {
		return nil, ErrRewardNotFound
	}
	account, err := s.ledgerSvc.GetAccountByUserID(input.UserID)
	if err != nil {
		return nil, err
	}
	if account.Status == constants.AccountStatusFrozen {
		return nil, ErrAccountFrozen
	}

	result := &RedeemResult{}
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		voucherRepo := s.voucherRepo.WithTx(tx)

		// 幂等重放：同账户同键直接返回历史券
		existing, err := voucherRepo.GetByRedemptionKey(account.ID, key)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.RewardID != input.RewardID {
				return ErrIdempotencyKeyConflict
			}
			current, accErr := s.ledgerRepo.WithTx(tx).GetAccountByID(account.ID)
			if accErr != nil {
				return accErr
			}
			result.Voucher = existing
			result.Account = current
			result.Replayed = true
			return nil
		}

		reward, err := s.rewardRepo.WithTx(tx).GetByIDForUpdate(input.RewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return ErrRewardNotFound
		}
		if reward.Status != constants.RewardStatusActive {
			return ErrRewardUnavailable
		}
		if reward.UsageLimit > 0 {
			used, countErr := voucherRepo.CountIssuedByAccountAndReward(account.ID, reward.ID)
			if countErr != nil {
				return countErr
			}
			if used >= int64(reward.UsageLimit) {
				return ErrUsageLimitExceeded
			}
		}

		creditAccount, txn, err := s.ledgerSvc.DebitInTx(tx, PointsChangeInput{
			AccountID:      account.ID,
			Amount:         reward.CostPoints,
			Reason:         constants.PointsReasonRedemption,
			IdempotencyKey: fmt.Sprintf("redeem:%s", key),
			Remark:         fmt.Sprintf("兑换奖励：%s", reward.Name),
		})
		if err != nil {
			return err
		}

		now := s.clock.Now()
		voucher := &models.Voucher{
			VoucherNo:          generateVoucherNo(now),
			RewardID:           reward.ID,
			AccountID:          account.ID,
			RedemptionKey:      key,
			Status:             constants.VoucherStatusActive,
			CostPoints:         reward.CostPoints,
			Type:               reward.Type,
			Value:              reward.Value,
			MinOrderAmount:     reward.MinOrderAmount,
			Stackable:          reward.Stackable,
			MaxDiscountPercent: reward.MaxDiscountPercent,
			IssuedAt:           now,
			ExpiresAt:          now.Add(time.Duration(reward.ValidDays) * 24 * time.Hour),
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := voucherRepo.Create(voucher); err != nil {
			if isUniqueViolation(err) {
				return ErrIdempotencyKeyConflict
			}
			return err
		}

		result.Voucher = voucher
		result.Account = creditAccount
		result.Transaction = txn
		return nil
	}); err != nil {
		return nil, err
	}

	if !result.Replayed {
		if err := cache.DelClubSummary(context.Background(), account.ID); err != nil {
			logger.Warnw("club_summary_cache_del_failed", "account_id", account.ID, "error", err)
		}
		if err := s.queueClient.EnqueueVoucherIssuedNotify(queue.VoucherIssuedNotifyPayload{
			AccountID: account.ID,
			VoucherID: result.Voucher.ID,
			VoucherNo: result.Voucher.VoucherNo,
		}); err != nil {
			logger.Warnw("voucher_issued_notify_enqueue_failed", "voucher_id", result.Voucher.ID, "error", err)
		}
		if err := s.queueClient.EnqueueVoucherExpire(queue.VoucherExpirePayload{
			VoucherID: result.Voucher.ID,
		}, result.Voucher.ExpiresAt.Sub(s.clock.Now())); err != nil {
			logger.Warnw("voucher_expire_enqueue_failed", "voucher_id", result.Voucher.ID, "error", err)
		}
	}
	return result, nil
}

func generateVoucherNo(now time.Time) string {
	return fmt.Sprintf("VC%s%s", now.Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
