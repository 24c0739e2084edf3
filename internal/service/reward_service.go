package service

import (
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"
)

// RewardService 奖励目录查询服务（会员侧）
type RewardService struct {
	rewardRepo repository.RewardRepository
}

// NewRewardService 创建奖励目录服务
func NewRewardService(rewardRepo repository.RewardRepository) *RewardService {
	return &RewardService{rewardRepo: rewardRepo}
}

// ListActive 查询上架中的奖励
func (s *RewardService) ListActive(filter repository.RewardListFilter) ([]models.Reward, int64, error) {
	filter.OnlyActive = true
	filter.Status = ""
	return s.rewardRepo.List(filter)
}

// GetActiveByID 查询单个上架奖励
func (s *RewardService) GetActiveByID(id uint) (*models.Reward, error) {
	reward, err := s.rewardRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reward == nil || reward.Status != constants.RewardStatusActive {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}
