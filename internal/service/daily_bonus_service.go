package service

import (
	"context"
	"fmt"
	"time"

	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/queue"
	"github.com/loyaltyclub-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DailyBonusService 每日签到服务
// 冷却与断签都按滚动时间窗计算，不依赖自然日切换
type DailyBonusService struct {
	bonusRepo     repository.DailyBonusRepository
	ledgerRepo    repository.LedgerRepository
	ledgerSvc     *LedgerService
	levelSvc      *LevelService
	queueClient   *queue.Client
	cooldown      time.Duration
	grace         time.Duration
	clock         Clock
}

// DailyBonusClaimResult 签到结果
type DailyBonusClaimResult struct {
	Account     *models.ClubAccount
	Transaction *models.PointsTransaction
	StreakDay   int
	BasePoints  int64
	Points      int64
	NextClaimAt time.Time
	Replayed    bool
}

// DailyBonusStatus 签到状态视图
type DailyBonusStatus struct {
	Claimable     bool
	StreakDay     int
	NextStreakDay int
	NextPoints    int64
	NextClaimAt   *time.Time
}

// NewDailyBonusService 创建签到服务
func NewDailyBonusService(
	bonusRepo repository.DailyBonusRepository,
	ledgerRepo repository.LedgerRepository,
	ledgerSvc *LedgerService,
	levelSvc *LevelService,
	queueClient *queue.Client,
	cooldown time.Duration,
	grace time.Duration,
	clock Clock,
) *DailyBonusService {
	if cooldown <= 0 {
		cooldown = 24 * time.Hour
	}
	if grace <= 0 {
		grace = 48 * time.Hour
	}
	if clock == nil {
		clock = RealClock()
	}
	return &DailyBonusService{
		bonusRepo:   bonusRepo,
		ledgerRepo:  ledgerRepo,
		ledgerSvc:   ledgerSvc,
		levelSvc:    levelSvc,
		queueClient: queueClient,
		cooldown:    cooldown,
		grace:       grace,
		clock:       clock,
	}
}

// Claim 执行签到
func (s *DailyBonusService) Claim(userID uint) (*DailyBonusClaimResult, error) {
	account, err := s.ledgerSvc.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account.Status == constants.AccountStatusFrozen {
		return nil, ErrAccountFrozen
	}

	now := s.clock.Now()
	result := &DailyBonusClaimResult{}
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		bonusRepo := s.bonusRepo.WithTx(tx)
		state, err := bonusRepo.GetByAccountIDForUpdate(account.ID)
		if err != nil {
			return err
		}
		if state == nil {
			state = &models.DailyBonusState{
				AccountID: account.ID,
				Status:    constants.BonusStatusAvailable,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := bonusRepo.Create(state); err != nil {
				return ErrBonusStateInvalid
			}
			locked, lockErr := bonusRepo.GetByAccountIDForUpdate(account.ID)
			if lockErr != nil {
				return lockErr
			}
			if locked != nil {
				state = locked
			}
		}

		if state.LastClaimedAt != nil && now.Before(state.LastClaimedAt.Add(s.cooldown)) {
			return ErrBonusCooldown
		}

		day := nextStreakDay(state, now, s.grace)
		base := constants.DailyBonusCycle[day-1]
		points, err := s.applyLevelMultiplier(account.XP, base)
		if err != nil {
			return err
		}

		creditAccount, txn, err := s.ledgerSvc.CreditInTx(tx, PointsChangeInput{
			AccountID:      account.ID,
			Amount:         points,
			Reason:         constants.PointsReasonBonus,
			IdempotencyKey: bonusIdempotencyKey(account.ID, now),
			Remark:         fmt.Sprintf("每日签到第%d天", day),
		})
		if err != nil {
			return err
		}
		// 幂等重放：本自然日已经签过，不再推进连签状态
		if txn.CreatedAt.Before(now) {
			result.Account = creditAccount
			result.Transaction = txn
			result.StreakDay = state.StreakDay
			result.Points = txn.Amount
			if state.LastClaimedAt != nil {
				result.NextClaimAt = state.LastClaimedAt.Add(s.cooldown)
			}
			result.Replayed = true
			return nil
		}

		claimedAt := now
		nextAt := now.Add(s.cooldown)
		state.StreakDay = day
		state.Status = constants.BonusStatusCooldown
		state.LastClaimedAt = &claimedAt
		state.NextClaimAt = &nextAt
		state.UpdatedAt = now
		if err := bonusRepo.Update(state); err != nil {
			return ErrBonusStateInvalid
		}

		result.Account = creditAccount
		result.Transaction = txn
		result.StreakDay = day
		result.BasePoints = base
		result.Points = points
		result.NextClaimAt = nextAt
		return nil
	}); err != nil {
		return nil, err
	}

	if err := cache.DelClubSummary(context.Background(), account.ID); err != nil {
		logger.Warnw("club_summary_cache_del_failed", "account_id", account.ID, "error", err)
	}
	if !result.Replayed {
		if err := s.queueClient.EnqueueBonusClaimedNotify(queue.BonusClaimedNotifyPayload{
			AccountID: account.ID,
			StreakDay: result.StreakDay,
			Points:    result.Points,
		}); err != nil {
			logger.Warnw("bonus_claimed_notify_enqueue_failed", "account_id", account.ID, "error", err)
		}
	}
	return result, nil
}

// Status 查询签到状态
func (s *DailyBonusService) Status(userID uint) (*DailyBonusStatus, error) {
	account, err := s.ledgerSvc.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	state, err := s.bonusRepo.GetByAccountID(account.ID)
	if err != nil {
		return nil, err
	}

	status := &DailyBonusStatus{Claimable: true, NextStreakDay: 1}
	if state != nil {
		status.StreakDay = effectiveStreakDay(state, now, s.grace)
		status.NextStreakDay = nextStreakDay(state, now, s.grace)
		if state.LastClaimedAt != nil {
			next := state.LastClaimedAt.Add(s.cooldown)
			if now.Before(next) {
				status.Claimable = false
				status.NextClaimAt = &next
			}
		}
	}
	base := constants.DailyBonusCycle[status.NextStreakDay-1]
	points, err := s.applyLevelMultiplier(account.XP, base)
	if err != nil {
		return nil, err
	}
	status.NextPoints = points
	return status, nil
}

func (s *DailyBonusService) applyLevelMultiplier(xp int64, base int64) (int64, error) {
	level, err := s.levelSvc.ResolveLevel(xp)
	if err != nil {
		return 0, err
	}
	multiplier := level.DailyBonusMultiplier.Decimal
	if multiplier.LessThanOrEqual(decimal.Zero) {
		multiplier = decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(base).Mul(multiplier).Round(0).IntPart(), nil
}

// nextStreakDay 计算本次签到对应的连签天数
// 宽限窗内继续连签（第 7 天后回到第 1 天），超窗则重置
func nextStreakDay(state *models.DailyBonusState, now time.Time, grace time.Duration) int {
	if state == nil || state.LastClaimedAt == nil {
		return 1
	}
	if now.After(state.LastClaimedAt.Add(grace)) {
		return 1
	}
	day := state.StreakDay + 1
	if day > len(constants.DailyBonusCycle) {
		day = 1
	}
	return day
}

// effectiveStreakDay 读取视角下的当前连签天数（超窗按归零展示）
func effectiveStreakDay(state *models.DailyBonusState, now time.Time, grace time.Duration) int {
	if state == nil || state.LastClaimedAt == nil {
		return 0
	}
	if now.After(state.LastClaimedAt.Add(grace)) {
		return 0
	}
	return state.StreakDay
}

func bonusIdempotencyKey(accountID uint, now time.Time) string {
	return fmt.Sprintf("bonus:%d:%s", accountID, now.UTC().Format("20060102"))
}
