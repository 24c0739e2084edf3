package service

import (
	"strings"

	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"github.com/shopspring/decimal"
)

// RewardAdminService 奖励目录管理服务
type RewardAdminService struct {
	rewardRepo repository.RewardRepository
	clock      Clock
}

// RewardUpsertInput 奖励创建/更新输入
type RewardUpsertInput struct {
	Name               string
	Category           string
	CostPoints         int64
	Type               string
	Value              models.Money
	MinOrderAmount     models.Money
	ValidDays          int
	Stackable          bool
	UsageLimit         int
	MaxDiscountPercent models.Money
}

// NewRewardAdminService 创建奖励管理服务
func NewRewardAdminService(rewardRepo repository.RewardRepository, clock Clock) *RewardAdminService {
	if clock == nil {
		clock = RealClock()
	}
	return &RewardAdminService{rewardRepo: rewardRepo, clock: clock}
}

// List 管理端分页查询奖励
func (s *RewardAdminService) List(filter repository.RewardListFilter) ([]models.Reward, int64, error) {
	return s.rewardRepo.List(filter)
}

// GetByID 管理端查询单个奖励
func (s *RewardAdminService) GetByID(id uint) (*models.Reward, error) {
	reward, err := s.rewardRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}

// Create 创建奖励
func (s *RewardAdminService) Create(input RewardUpsertInput) (*models.Reward, error) {
	if err := validateRewardInput(&input); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	reward := &models.Reward{
		Name:               input.Name,
		Category:           input.Category,
		CostPoints:         input.CostPoints,
		Type:               input.Type,
		Value:              input.Value,
		MinOrderAmount:     input.MinOrderAmount,
		ValidDays:          input.ValidDays,
		Stackable:          input.Stackable,
		UsageLimit:         input.UsageLimit,
		MaxDiscountPercent: input.MaxDiscountPercent,
		Status:             constants.RewardStatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.rewardRepo.Create(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Update 更新奖励条款
// 已发券保留兑换时快照，不受此处编辑影响
func (s *RewardAdminService) Update(id uint, input RewardUpsertInput) (*models.Reward, error) {
	reward, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := validateRewardInput(&input); err != nil {
		return nil, err
	}
	reward.Name = input.Name
	reward.Category = input.Category
	reward.CostPoints = input.CostPoints
	reward.Type = input.Type
	reward.Value = input.Value
	reward.MinOrderAmount = input.MinOrderAmount
	reward.ValidDays = input.ValidDays
	reward.Stackable = input.Stackable
	reward.UsageLimit = input.UsageLimit
	reward.MaxDiscountPercent = input.MaxDiscountPercent
	reward.UpdatedAt = s.clock.Now()
	if err := s.rewardRepo.Update(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Withdraw 下架奖励（已发券不受影响）
func (s *RewardAdminService) Withdraw(id uint) (*models.Reward, error) {
	reward, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	reward.Status = constants.RewardStatusWithdrawn
	reward.UpdatedAt = s.clock.Now()
	if err := s.rewardRepo.Update(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Activate 重新上架奖励
func (s *RewardAdminService) Activate(id uint) (*models.Reward, error) {
	reward, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	reward.Status = constants.RewardStatusActive
	reward.UpdatedAt = s.clock.Now()
	if err := s.rewardRepo.Update(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Delete 删除奖励（软删除）
func (s *RewardAdminService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.rewardRepo.Delete(id)
}

func validateRewardInput(input *RewardUpsertInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Type = strings.TrimSpace(strings.ToLower(input.Type))
	if input.Name == "" || input.Category == "" {
		return ErrRewardInvalidInput
	}
	if input.CostPoints <= 0 {
		return ErrRewardInvalidInput
	}
	if input.Type != constants.RewardTypeFixed && input.Type != constants.RewardTypePercent {
		return ErrRewardInvalidInput
	}
	if input.Value.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrRewardInvalidInput
	}
	if input.Type == constants.RewardTypePercent && input.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return ErrRewardInvalidInput
	}
	if input.MinOrderAmount.Decimal.IsNegative() {
		return ErrRewardInvalidInput
	}
	if input.ValidDays <= 0 {
		input.ValidDays = 30
	}
	if input.UsageLimit < 0 {
		input.UsageLimit = 0
	}
	if input.MaxDiscountPercent.Decimal.IsNegative() || input.MaxDiscountPercent.Decimal.GreaterThan(decimal.NewFromInt(100)) {
		return ErrRewardInvalidInput
	}
	return nil
}
