package repository

import (
	"errors"
	"strings"

	"github.com/loyaltyclub-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推广关系与收益数据访问接口
type ReferralRepository interface {
	GetBindingByReferee(refereeAccountID uint) (*models.ReferralBinding, error)
	ListBindingsByAgent(agentAccountID uint) ([]models.ReferralBinding, error)
	CountBindingsByAgent(agentAccountID uint) (int64, error)
	CreateBinding(binding *models.ReferralBinding) error
	UpdateBinding(binding *models.ReferralBinding) error
	CreateEarning(earning *models.AgentEarning) error
	UpdateEarning(earning *models.AgentEarning) error
	GetEarningByID(id uint) (*models.AgentEarning, error)
	GetEarningByIDForUpdate(id uint) (*models.AgentEarning, error)
	GetEarningByAgentAndOrder(agentAccountID uint, orderID string) (*models.AgentEarning, error)
	ListEarnings(filter EarningListFilter) ([]models.AgentEarning, int64, error)
	ListEarningIDsByAgent(agentAccountID uint, status string) ([]uint, error)
	SumEarningsByAgent(agentAccountID uint, statuses []string) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormReferralRepository
}

// GormReferralRepository GORM 实现
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推广仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// Transaction 在事务中执行
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) *GormReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// GetBindingByReferee 按被推广账户获取绑定关系
func (r *GormReferralRepository) GetBindingByReferee(refereeAccountID uint) (*models.ReferralBinding, error) {
	if refereeAccountID == 0 {
		return nil, nil
	}
	var binding models.ReferralBinding
	if err := r.db.Where("referee_account_id = ?", refereeAccountID).First(&binding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &binding, nil
}

// ListBindingsByAgent 获取推广人名下全部绑定关系
func (r *GormReferralRepository) ListBindingsByAgent(agentAccountID uint) ([]models.ReferralBinding, error) {
	if agentAccountID == 0 {
		return []models.ReferralBinding{}, nil
	}
	bindings := make([]models.ReferralBinding, 0)
	if err := r.db.Where("agent_account_id = ?", agentAccountID).Order("id desc").Find(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}

// CountBindingsByAgent 统计推广人名下绑定数量
func (r *GormReferralRepository) CountBindingsByAgent(agentAccountID uint) (int64, error) {
	if agentAccountID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.ReferralBinding{}).
		Where("agent_account_id = ?", agentAccountID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateBinding 创建绑定关系
func (r *GormReferralRepository) CreateBinding(binding *models.ReferralBinding) error {
	return r.db.Create(binding).Error
}

// UpdateBinding 更新绑定关系
func (r *GormReferralRepository) UpdateBinding(binding *models.ReferralBinding) error {
	return r.db.Save(binding).Error
}

// CreateEarning 创建收益记录
func (r *GormReferralRepository) CreateEarning(earning *models.AgentEarning) error {
	return r.db.Create(earning).Error
}

// UpdateEarning 更新收益记录
func (r *GormReferralRepository) UpdateEarning(earning *models.AgentEarning) error {
	return r.db.Save(earning).Error
}

// GetEarningByID 按ID获取收益记录
func (r *GormReferralRepository) GetEarningByID(id uint) (*models.AgentEarning, error) {
	if id == 0 {
		return nil, nil
	}
	var earning models.AgentEarning
	if err := r.db.First(&earning, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// GetEarningByIDForUpdate 按ID加锁获取收益记录
func (r *GormReferralRepository) GetEarningByIDForUpdate(id uint) (*models.AgentEarning, error) {
	if id == 0 {
		return nil, nil
	}
	var earning models.AgentEarning
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// GetEarningByAgentAndOrder 按推广人与订单获取收益记录
func (r *GormReferralRepository) GetEarningByAgentAndOrder(agentAccountID uint, orderID string) (*models.AgentEarning, error) {
	orderID = strings.TrimSpace(orderID)
	if agentAccountID == 0 || orderID == "" {
		return nil, nil
	}
	var earning models.AgentEarning
	if err := r.db.Where("agent_account_id = ? AND order_id = ?", agentAccountID, orderID).First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// ListEarnings 分页查询收益记录
func (r *GormReferralRepository) ListEarnings(filter EarningListFilter) ([]models.AgentEarning, int64, error) {
	query := r.db.Model(&models.AgentEarning{})
	if filter.AgentAccountID != 0 {
		query = query.Where("agent_account_id = ?", filter.AgentAccountID)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
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

	var earnings []models.AgentEarning
	if err := query.Order("id desc").Find(&earnings).Error; err != nil {
		return nil, 0, err
	}
	return earnings, total, nil
}

// ListEarningIDsByAgent 获取代理名下指定状态的收益 ID，按创建顺序返回
func (r *GormReferralRepository) ListEarningIDsByAgent(agentAccountID uint, status string) ([]uint, error) {
	if agentAccountID == 0 {
		return []uint{}, nil
	}
	var ids []uint
	query := r.db.Model(&models.AgentEarning{}).Where("agent_account_id = ?", agentAccountID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("id asc").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SumEarningsByAgent 汇总指定状态收益积分
func (r *GormReferralRepository) SumEarningsByAgent(agentAccountID uint, statuses []string) (int64, error) {
	if agentAccountID == 0 {
		return 0, nil
	}
	query := r.db.Model(&models.AgentEarning{}).Where("agent_account_id = ?", agentAccountID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var row struct {
		Total int64
	}
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.Total, nil
}
