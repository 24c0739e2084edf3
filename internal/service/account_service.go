package service

import (
	"context"

	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
)

// AccountService 会员账户视图服务
type AccountService struct {
	ledgerSvc *LedgerService
	levelSvc  *LevelService
	bonusSvc  *DailyBonusService
	clock     Clock
}

// ClubSummary 会员概览
type ClubSummary struct {
	AccountID      uint   `json:"account_id"`
	PointsBalance  int64  `json:"points_balance"`
	XP             int64  `json:"xp"`
	LevelCode      string `json:"level_code"`
	LevelName      string `json:"level_name"`
	NextLevelXP    *int64 `json:"next_level_xp"`
	StreakDay      int    `json:"streak_day"`
	BonusClaimable bool   `json:"bonus_claimable"`
	NextClaimAt    int64  `json:"next_claim_at"`
}

// NewAccountService 创建账户视图服务
func NewAccountService(ledgerSvc *LedgerService, levelSvc *LevelService, bonusSvc *DailyBonusService, clock Clock) *AccountService {
	if clock == nil {
		clock = RealClock()
	}
	return &AccountService{ledgerSvc: ledgerSvc, levelSvc: levelSvc, bonusSvc: bonusSvc, clock: clock}
}

// Summary 获取会员概览（带 Redis 缓存）
func (s *AccountService) Summary(ctx context.Context, userID uint) (*ClubSummary, error) {
	account, err := s.ledgerSvc.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}

	if snap, hit, cacheErr := cache.GetClubSummary(ctx, account.ID); cacheErr == nil && hit {
		return summaryFromSnapshot(snap), nil
	} else if cacheErr != nil {
		logger.Warnw("club_summary_cache_get_failed", "account_id", account.ID, "error", cacheErr)
	}

	summary, err := s.buildSummary(account)
	if err != nil {
		return nil, err
	}
	if err := cache.SetClubSummary(ctx, snapshotFromSummary(summary, s.clock)); err != nil {
		logger.Warnw("club_summary_cache_set_failed", "account_id", account.ID, "error", err)
	}
	return summary, nil
}

// Freeze 冻结会员账户
func (s *AccountService) Freeze(accountID uint) (*models.ClubAccount, error) {
	return s.setStatus(accountID, constants.AccountStatusFrozen)
}

// Unfreeze 解冻会员账户
func (s *AccountService) Unfreeze(accountID uint) (*models.ClubAccount, error) {
	return s.setStatus(accountID, constants.AccountStatusActive)
}

func (s *AccountService) setStatus(accountID uint, status string) (*models.ClubAccount, error) {
	account, err := s.ledgerSvc.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == status {
		return account, nil
	}
	account.Status = status
	account.UpdatedAt = s.clock.Now()
	if err := s.ledgerSvc.ledgerRepo.UpdateAccount(account); err != nil {
		return nil, ErrAccountUpdateFailed
	}
	if err := cache.DelClubSummary(context.Background(), account.ID); err != nil {
		logger.Warnw("club_summary_cache_del_failed", "account_id", account.ID, "error", err)
	}
	return account, nil
}

func (s *AccountService) buildSummary(account *models.ClubAccount) (*ClubSummary, error) {
	level, err := s.levelSvc.ResolveLevel(account.XP)
	if err != nil {
		return nil, err
	}
	bonus, err := s.bonusSvc.Status(account.UserID)
	if err != nil {
		return nil, err
	}
	summary := &ClubSummary{
		AccountID:      account.ID,
		PointsBalance:  account.PointsBalance,
		XP:             account.XP,
		LevelCode:      level.Code,
		LevelName:      level.Name,
		NextLevelXP:    level.NextLevelXP,
		StreakDay:      bonus.StreakDay,
		BonusClaimable: bonus.Claimable,
	}
	if bonus.NextClaimAt != nil {
		summary.NextClaimAt = bonus.NextClaimAt.Unix()
	}
	return summary, nil
}

func summaryFromSnapshot(snap *cache.ClubSummarySnapshot) *ClubSummary {
	return &ClubSummary{
		AccountID:      snap.AccountID,
		PointsBalance:  snap.PointsBalance,
		XP:             snap.XP,
		LevelCode:      snap.LevelCode,
		LevelName:      snap.LevelName,
		NextLevelXP:    snap.NextLevelXP,
		StreakDay:      snap.StreakDay,
		BonusClaimable: snap.BonusClaimable,
		NextClaimAt:    snap.NextClaimAt,
	}
}

func snapshotFromSummary(summary *ClubSummary, clock Clock) *cache.ClubSummarySnapshot {
	return &cache.ClubSummarySnapshot{
		AccountID:      summary.AccountID,
		PointsBalance:  summary.PointsBalance,
		XP:             summary.XP,
		LevelCode:      summary.LevelCode,
		LevelName:      summary.LevelName,
		NextLevelXP:    summary.NextLevelXP,
		StreakDay:      summary.StreakDay,
		BonusClaimable: summary.BonusClaimable,
		NextClaimAt:    summary.NextClaimAt,
		UpdatedAt:      clock.Now().Unix(),
	}
}
