package repository

import (
	"errors"
	"strings"

	"github.com/loyaltyclub-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoucherRepository 券数据访问接口
type VoucherRepository interface {
	Create(voucher *models.Voucher) error
	Update(voucher *models.Voucher) error
	GetByID(id uint) (*models.Voucher, error)
	GetByIDForUpdate(id uint) (*models.Voucher, error)
	GetByIDAndAccount(id uint, accountID uint) (*models.Voucher, error)
	GetByVoucherNo(voucherNo string) (*models.Voucher, error)
	GetByRedemptionKey(accountID uint, key string) (*models.Voucher, error)
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	ListUsedByOrder(accountID uint, orderID string) ([]models.Voucher, error)
	CountIssuedByAccountAndReward(accountID uint, rewardID uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建券仓储
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormVoucherRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// Create 创建券
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	return r.db.Create(voucher).Error
}

// Update 更新券
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	return r.db.Save(voucher).Error
}

// GetByID 按ID获取券
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByIDForUpdate 按ID加锁获取券
func (r *GormVoucherRepository) GetByIDForUpdate(id uint) (*models.Voucher, error) {
	if id == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByIDAndAccount 按ID和账户获取券
func (r *GormVoucherRepository) GetByIDAndAccount(id uint, accountID uint) (*models.Voucher, error) {
	if id == 0 || accountID == 0 {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Where("id = ? AND account_id = ?", id, accountID).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByVoucherNo 按券号获取券
func (r *GormVoucherRepository) GetByVoucherNo(voucherNo string) (*models.Voucher, error) {
	voucherNo = strings.TrimSpace(voucherNo)
	if voucherNo == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Where("voucher_no = ?", voucherNo).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByRedemptionKey 按兑换幂等键获取券
func (r *GormVoucherRepository) GetByRedemptionKey(accountID uint, key string) (*models.Voucher, error) {
	key = strings.TrimSpace(key)
	if accountID == 0 || key == "" {
		return nil, nil
	}
	var voucher models.Voucher
	if err := r.db.Where("account_id = ? AND redemption_key = ?", accountID, key).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// List 分页查询券
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	query := r.db.Model(&models.Voucher{})
	if filter.AccountID != 0 {
		query = query.Where("account_id = ?", filter.AccountID)
	}
	if filter.RewardID != 0 {
		query = query.Where("reward_id = ?", filter.RewardID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	var vouchers []models.Voucher
	if err := query.Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// ListUsedByOrder 查询已核销到某订单上的券
func (r *GormVoucherRepository) ListUsedByOrder(accountID uint, orderID string) ([]models.Voucher, error) {
	orderID = strings.TrimSpace(orderID)
	if accountID == 0 || orderID == "" {
		return []models.Voucher{}, nil
	}
	// applied_order_id 只在核销时写入，无需再按状态过滤
	var vouchers []models.Voucher
	err := r.db.
		Where("account_id = ? AND applied_order_id = ?", accountID, orderID).
		Find(&vouchers).Error
	if err != nil {
		return nil, err
	}
	return vouchers, nil
}

// CountIssuedByAccountAndReward 统计账户在某奖励上的兑换次数
func (r *GormVoucherRepository) CountIssuedByAccountAndReward(accountID uint, rewardID uint) (int64, error) {
	if accountID == 0 || rewardID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Voucher{}).
		Where("account_id = ? AND reward_id = ?", accountID, rewardID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
