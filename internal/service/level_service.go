package service

import (
	"strings"

	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"gorm.io/gorm"
)

// LevelService 等级服务
type LevelService struct {
	levelRepo  repository.ClubLevelRepository
	ledgerRepo repository.LedgerRepository
	clock      Clock
}

// LevelChange XP 变动后的等级变化结果
type LevelChange struct {
	Account   *models.ClubAccount
	FromLevel *models.ClubLevel
	ToLevel   *models.ClubLevel
	LeveledUp bool
}

// LevelUpdateInput 管理员调整等级档位输入
type LevelUpdateInput struct {
	Code                 string
	Name                 string
	DailyBonusMultiplier *models.Money
	CashbackPercent      *models.Money
}

// NewLevelService 创建等级服务
func NewLevelService(levelRepo repository.ClubLevelRepository, ledgerRepo repository.LedgerRepository, clock Clock) *LevelService {
	if clock == nil {
		clock = RealClock()
	}
	return &LevelService{levelRepo: levelRepo, ledgerRepo: ledgerRepo, clock: clock}
}

// ListLevels 获取全部等级档位（按门槛升序）
func (s *LevelService) ListLevels() ([]models.ClubLevel, error) {
	return s.levelRepo.List()
}

// ResolveLevel 根据 XP 计算当前等级
// 等级列表按 min_xp 升序，取最后一个门槛不超过 XP 的档位
func (s *LevelService) ResolveLevel(xp int64) (*models.ClubLevel, error) {
	levels, err := s.levelRepo.List()
	if err != nil {
		return nil, err
	}
	return resolveLevelFromList(levels, xp)
}

// GainXPInTx 在事务内为账户增加 XP 并计算等级变化
// XP 只增不减，扣减积分不回退 XP
func (s *LevelService) GainXPInTx(tx *gorm.DB, accountID uint, xpGain int64) (*LevelChange, error) {
	if tx == nil {
		return nil, ErrAccountUpdateFailed
	}
	if accountID == 0 {
		return nil, ErrAccountNotFound
	}
	if xpGain < 0 {
		return nil, ErrInvalidAmount
	}

	levels, err := s.levelRepo.List()
	if err != nil {
		return nil, err
	}

	repo := s.ledgerRepo.WithTx(tx)
	account, err := repo.GetAccountByIDForUpdate(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	fromLevel, err := resolveLevelFromList(levels, account.XP)
	if err != nil {
		return nil, err
	}
	if xpGain > 0 {
		account.XP += xpGain
		account.Version++
		account.UpdatedAt = s.clock.Now()
		if err := repo.UpdateAccount(account); err != nil {
			return nil, ErrAccountUpdateFailed
		}
	}
	toLevel, err := resolveLevelFromList(levels, account.XP)
	if err != nil {
		return nil, err
	}

	return &LevelChange{
		Account:   account,
		FromLevel: fromLevel,
		ToLevel:   toLevel,
		LeveledUp: fromLevel != nil && toLevel != nil && fromLevel.Code != toLevel.Code,
	}, nil
}

// UpdateLevel 管理员调整等级档位的名称与倍率
// 门槛区间不可修改，避免历史账户等级漂移
func (s *LevelService) UpdateLevel(input LevelUpdateInput) (*models.ClubLevel, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrLevelNotFound
	}
	level, err := s.levelRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return nil, ErrLevelNotFound
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		level.Name = name
	}
	if input.DailyBonusMultiplier != nil {
		if input.DailyBonusMultiplier.Decimal.IsNegative() {
			return nil, ErrLevelInvalidRange
		}
		level.DailyBonusMultiplier = *input.DailyBonusMultiplier
	}
	if input.CashbackPercent != nil {
		if input.CashbackPercent.Decimal.IsNegative() {
			return nil, ErrLevelInvalidRange
		}
		level.CashbackPercent = *input.CashbackPercent
	}
	level.UpdatedAt = s.clock.Now()
	if err := s.levelRepo.Update(level); err != nil {
		return nil, err
	}
	return level, nil
}

func resolveLevelFromList(levels []models.ClubLevel, xp int64) (*models.ClubLevel, error) {
	if len(levels) == 0 {
		return nil, ErrLevelNotFound
	}
	var current *models.ClubLevel
	for i := range levels {
		if levels[i].MinXP <= xp {
			current = &levels[i]
		}
	}
	if current == nil {
		// XP 低于最低门槛时落在初始档位
		current = &levels[0]
	}
	return current, nil
}
