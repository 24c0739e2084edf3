package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralService 推广佣金服务
type ReferralService struct {
	referralRepo repository.ReferralRepository
	ledgerRepo   repository.LedgerRepository
	ledgerSvc    *LedgerService
	clock        Clock
}

// ReferralBindInput 绑定推广关系输入
type ReferralBindInput struct {
	RefereeUserID  uint
	AgentAccountID uint
	CommissionRate models.Money
}

// ReferralSummary 代理收益概览
type ReferralSummary struct {
	AgentAccountID uint  `json:"agent_account_id"`
	RefereeCount   int64 `json:"referee_count"`
	PendingPoints  int64 `json:"pending_points"`
	PaidPoints     int64 `json:"paid_points"`
}

// NewReferralService 创建推广佣金服务
func NewReferralService(
	referralRepo repository.ReferralRepository,
	ledgerRepo repository.LedgerRepository,
	ledgerSvc *LedgerService,
	clock Clock,
) *ReferralService {
	if clock == nil {
		clock = RealClock()
	}
	return &ReferralService{
		referralRepo: referralRepo,
		ledgerRepo:   ledgerRepo,
		ledgerSvc:    ledgerSvc,
		clock:        clock,
	}
}

// Bind 为被推荐用户绑定代理账户
// 绑定关系一经建立不可更换
func (s *ReferralService) Bind(input ReferralBindInput) (*models.ReferralBinding, error) {
	rate := input.CommissionRate.Decimal
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrReferralInvalidRate
	}
	refereeAccount, err := s.ledgerSvc.GetAccountByUserID(input.RefereeUserID)
	if err != nil {
		return nil, err
	}
	agentAccount, err := s.ledgerSvc.GetAccountByID(input.AgentAccountID)
	if err != nil {
		return nil, err
	}
	if refereeAccount.ID == agentAccount.ID {
		return nil, ErrReferralSelfBind
	}

	existing, err := s.referralRepo.GetBindingByReferee(refereeAccount.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.AgentAccountID == agentAccount.ID {
			return existing, nil
		}
		return nil, ErrReferralAlreadyBound
	}

	now := s.clock.Now()
	binding := &models.ReferralBinding{
		RefereeAccountID: refereeAccount.ID,
		AgentAccountID:   agentAccount.ID,
		CommissionRate:   input.CommissionRate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.referralRepo.CreateBinding(binding); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrReferralAlreadyBound
		}
		return nil, err
	}
	return binding, nil
}

// AccrueForOrderTx 在事务内为已完成订单累计待结算佣金
// 同一代理同一订单只产生一条收益，无绑定关系时静默跳过
func (s *ReferralService) AccrueForOrderTx(tx *gorm.DB, refereeAccountID uint, orderID string, orderAmount models.Money) (*models.AgentEarning, error) {
	if tx == nil {
		return nil, ErrOrderEventInvalid
	}
	orderID = strings.TrimSpace(orderID)
	if refereeAccountID == 0 || orderID == "" {
		return nil, ErrOrderEventInvalid
	}

	repo := s.referralRepo.WithTx(tx)
	binding, err := repo.GetBindingByReferee(refereeAccountID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, nil
	}

	exists, err := repo.GetEarningByAgentAndOrder(binding.AgentAccountID, orderID)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return exists, nil
	}

	amount := orderAmount.Decimal.Mul(binding.CommissionRate.Decimal).Round(0).IntPart()
	if amount <= 0 {
		return nil, nil
	}

	now := s.clock.Now()
	earning := &models.AgentEarning{
		AgentAccountID: binding.AgentAccountID,
		OrderID:        orderID,
		OrderAmount:    orderAmount,
		Rate:           binding.CommissionRate,
		Amount:         amount,
		Status:         constants.AgentEarningStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.CreateEarning(earning); err != nil {
		if isUniqueViolation(err) {
			return repo.GetEarningByAgentAndOrder(binding.AgentAccountID, orderID)
		}
		return nil, err
	}
	return earning, nil
}

// PayoutEarning 将单条待结算佣金入账到代理账户
// 重复调用只入账一次
func (s *ReferralService) PayoutEarning(earningID uint) (*models.AgentEarning, error) {
	var earningResult *models.AgentEarning
	var agentAccountID uint
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.referralRepo.WithTx(tx)
		earning, err := repo.GetEarningByIDForUpdate(earningID)
		if err != nil {
			return err
		}
		if earning == nil {
			return ErrEarningNotFound
		}
		if earning.Status == constants.AgentEarningStatusPaid {
			earningResult = earning
			return nil
		}

		if _, _, err := s.ledgerSvc.CreditInTx(tx, PointsChangeInput{
			AccountID:      earning.AgentAccountID,
			Amount:         earning.Amount,
			Reason:         constants.PointsReasonReferralCommission,
			IdempotencyKey: fmt.Sprintf("earning:%d:payout", earning.ID),
			OrderID:        earning.OrderID,
			Remark:         fmt.Sprintf("推广佣金结算（订单 %s）", earning.OrderID),
		}); err != nil {
			return err
		}

		now := s.clock.Now()
		earning.Status = constants.AgentEarningStatusPaid
		earning.PaidAt = &now
		earning.UpdatedAt = now
		if err := repo.UpdateEarning(earning); err != nil {
			return err
		}
		earningResult = earning
		agentAccountID = earning.AgentAccountID
		return nil
	}); err != nil {
		return nil, err
	}

	if agentAccountID != 0 {
		if err := cache.DelClubSummary(context.Background(), agentAccountID); err != nil {
			logger.Warnw("club_summary_cache_del_failed", "account_id", agentAccountID, "error", err)
		}
	}
	return earningResult, nil
}

// PayoutPending 批量结算代理名下全部待结算佣金
// 逐条沿用单条结算流程，中断后重试不会重复入账
func (s *ReferralService) PayoutPending(agentAccountID uint) ([]models.AgentEarning, error) {
	if agentAccountID == 0 {
		return nil, ErrAccountNotFound
	}
	if _, err := s.ledgerSvc.GetAccountByID(agentAccountID); err != nil {
		return nil, err
	}

	ids, err := s.referralRepo.ListEarningIDsByAgent(agentAccountID, constants.AgentEarningStatusPending)
	if err != nil {
		return nil, err
	}

	paid := make([]models.AgentEarning, 0, len(ids))
	for _, id := range ids {
		earning, err := s.PayoutEarning(id)
		if err != nil {
			return nil, err
		}
		paid = append(paid, *earning)
	}
	return paid, nil
}

// ListEarnings 分页查询收益记录
func (s *ReferralService) ListEarnings(filter repository.EarningListFilter) ([]models.AgentEarning, int64, error) {
	return s.referralRepo.ListEarnings(filter)
}

// SummaryByUser 查询用户作为代理的收益概览
func (s *ReferralService) SummaryByUser(userID uint) (*ReferralSummary, error) {
	account, err := s.ledgerSvc.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	refereeCount, err := s.referralRepo.CountBindingsByAgent(account.ID)
	if err != nil {
		return nil, err
	}
	pending, err := s.referralRepo.SumEarningsByAgent(account.ID, []string{constants.AgentEarningStatusPending})
	if err != nil {
		return nil, err
	}
	paid, err := s.referralRepo.SumEarningsByAgent(account.ID, []string{constants.AgentEarningStatusPaid})
	if err != nil {
		return nil, err
	}
	return &ReferralSummary{
		AgentAccountID: account.ID,
		RefereeCount:   refereeCount,
		PendingPoints:  pending,
		PaidPoints:     paid,
	}, nil
}
