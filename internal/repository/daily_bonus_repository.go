package repository

import (
	"errors"

	"github.com/loyaltyclub-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyBonusRepository 签到状态数据访问接口
type DailyBonusRepository interface {
	GetByAccountID(accountID uint) (*models.DailyBonusState, error)
	GetByAccountIDForUpdate(accountID uint) (*models.DailyBonusState, error)
	Create(state *models.DailyBonusState) error
	Update(state *models.DailyBonusState) error
	WithTx(tx *gorm.DB) *GormDailyBonusRepository
}

// GormDailyBonusRepository GORM 实现
type GormDailyBonusRepository struct {
	db *gorm.DB
}

// NewDailyBonusRepository 创建签到状态仓储
func NewDailyBonusRepository(db *gorm.DB) *GormDailyBonusRepository {
	return &GormDailyBonusRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDailyBonusRepository) WithTx(tx *gorm.DB) *GormDailyBonusRepository {
	if tx == nil {
		return r
	}
	return &GormDailyBonusRepository{db: tx}
}

// GetByAccountID 按账户ID获取签到状态
func (r *GormDailyBonusRepository) GetByAccountID(accountID uint) (*models.DailyBonusState, error) {
	if accountID == 0 {
		return nil, nil
	}
	var state models.DailyBonusState
	if err := r.db.Where("account_id = ?", accountID).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// GetByAccountIDForUpdate 按账户ID加锁获取签到状态
func (r *GormDailyBonusRepository) GetByAccountIDForUpdate(accountID uint) (*models.DailyBonusState, error) {
	if accountID == 0 {
		return nil, nil
	}
	var state models.DailyBonusState
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).
		First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Create 创建签到状态
func (r *GormDailyBonusRepository) Create(state *models.DailyBonusState) error {
	return r.db.Create(state).Error
}

// Update 更新签到状态
func (r *GormDailyBonusRepository) Update(state *models.DailyBonusState) error {
	return r.db.Save(state).Error
}
