package repository

import (
	"errors"
	"strings"

	"github.com/loyaltyclub-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 积分账本数据访问接口
type LedgerRepository interface {
	GetAccountByID(id uint) (*models.ClubAccount, error)
	GetAccountByUserID(userID uint) (*models.ClubAccount, error)
	GetAccountByUserIDForUpdate(userID uint) (*models.ClubAccount, error)
	GetAccountByIDForUpdate(id uint) (*models.ClubAccount, error)
	GetAccountsByUserIDs(userIDs []uint) ([]models.ClubAccount, error)
	CreateAccount(account *models.ClubAccount) error
	UpdateAccount(account *models.ClubAccount) error
	ListAccounts(filter ClubAccountListFilter) ([]models.ClubAccount, int64, error)
	CreateTransaction(txn *models.PointsTransaction) error
	GetTransactionByIdempotencyKey(accountID uint, key string) (*models.PointsTransaction, error)
	SumTransactionsByAccount(accountID uint) (int64, error)
	ListTransactions(filter PointsTxnListFilter) ([]models.PointsTransaction, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormLedgerRepository
}

// GormLedgerRepository GORM 积分账本仓储实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建积分账本仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// GetAccountByID 按ID获取会员账户
func (r *GormLedgerRepository) GetAccountByID(id uint) (*models.ClubAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.ClubAccount
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByUserID 按用户ID获取会员账户
func (r *GormLedgerRepository) GetAccountByUserID(userID uint) (*models.ClubAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.ClubAccount
	if err := r.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByUserIDForUpdate 按用户ID加锁获取会员账户
func (r *GormLedgerRepository) GetAccountByUserIDForUpdate(userID uint) (*models.ClubAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.ClubAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByIDForUpdate 按账户ID加锁获取会员账户
func (r *GormLedgerRepository) GetAccountByIDForUpdate(id uint) (*models.ClubAccount, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.ClubAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountsByUserIDs 批量获取会员账户
func (r *GormLedgerRepository) GetAccountsByUserIDs(userIDs []uint) ([]models.ClubAccount, error) {
	if len(userIDs) == 0 {
		return []models.ClubAccount{}, nil
	}
	var accounts []models.ClubAccount
	if err := r.db.Where("user_id IN ?", userIDs).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount 创建会员账户
func (r *GormLedgerRepository) CreateAccount(account *models.ClubAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新会员账户
func (r *GormLedgerRepository) UpdateAccount(account *models.ClubAccount) error {
	return r.db.Save(account).Error
}

// ListAccounts 分页查询会员账户
func (r *GormLedgerRepository) ListAccounts(filter ClubAccountListFilter) ([]models.ClubAccount, int64, error) {
	query := r.db.Model(&models.ClubAccount{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MinXP != nil {
		query = query.Where("xp >= ?", *filter.MinXP)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var accounts []models.ClubAccount
	if err := query.Order("id desc").Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// CreateTransaction 创建积分流水
func (r *GormLedgerRepository) CreateTransaction(txn *models.PointsTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByIdempotencyKey 按幂等键获取流水
func (r *GormLedgerRepository) GetTransactionByIdempotencyKey(accountID uint, key string) (*models.PointsTransaction, error) {
	key = strings.TrimSpace(key)
	if accountID == 0 || key == "" {
		return nil, nil
	}
	var txn models.PointsTransaction
	if err := r.db.Where("account_id = ? AND idempotency_key = ?", accountID, key).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// SumTransactionsByAccount 汇总账户全部流水金额
func (r *GormLedgerRepository) SumTransactionsByAccount(accountID uint) (int64, error) {
	if accountID == 0 {
		return 0, nil
	}
	var row struct {
		Total int64
	}
	err := r.db.Model(&models.PointsTransaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Total, nil
}

// ListTransactions 分页查询积分流水
func (r *GormLedgerRepository) ListTransactions(filter PointsTxnListFilter) ([]models.PointsTransaction, int64, error) {
	query := r.db.Model(&models.PointsTransaction{})
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.OrderID != "" {
		query = query.Where("related_order_id = ?", filter.OrderID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.PointsTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
