package service

import (
	"strings"

	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherService 券服务
type VoucherService struct {
	voucherRepo repository.VoucherRepository
	ledgerSvc   *LedgerService
	clock       Clock
}

// VoucherApplyInput 核销输入
type VoucherApplyInput struct {
	UserID      uint
	VoucherID   uint
	OrderID     string
	OrderAmount models.Money
}

// VoucherApplyResult 核销结果
type VoucherApplyResult struct {
	Voucher        *models.Voucher
	DiscountAmount models.Money
	PayableAmount  models.Money
	Replayed       bool
}

// NewVoucherService 创建券服务
func NewVoucherService(voucherRepo repository.VoucherRepository, ledgerSvc *LedgerService, clock Clock) *VoucherService {
	if clock == nil {
		clock = RealClock()
	}
	return &VoucherService{voucherRepo: voucherRepo, ledgerSvc: ledgerSvc, clock: clock}
}

// ListByUser 查询用户名下的券
func (s *VoucherService) ListByUser(userID uint, filter repository.VoucherListFilter) ([]models.Voucher, int64, error) {
	account, err := s.ledgerSvc.GetAccountByUserID(userID)
	if err != nil {
		return nil, 0, err
	}
	filter.AccountID = account.ID
	return s.voucherRepo.List(filter)
}

// GetByUser 查询用户名下的单张券
func (s *VoucherService) GetByUser(userID uint, voucherID uint) (*models.Voucher, error) {
	account, err := s.ledgerSvc.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	voucher, err := s.voucherRepo.GetByIDAndAccount(voucherID, account.ID)
	if err != nil {
		return nil, err
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// Apply 将券核销到订单并计算折扣金额
// 同券同订单重复核销按幂等重放处理
func (s *VoucherService) Apply(input VoucherApplyInput) (*VoucherApplyResult, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" || input.OrderAmount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidation
	}
	account, err := s.ledgerSvc.GetAccountByUserID(input.UserID)
	if err != nil {
		return nil, err
	}

	result := &VoucherApplyResult{}
	if err := s.voucherRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.voucherRepo.WithTx(tx)
		voucher, err := repo.GetByIDForUpdate(input.VoucherID)
		if err != nil {
			return err
		}
		if voucher == nil || voucher.AccountID != account.ID {
			return ErrVoucherNotFound
		}

		now := s.clock.Now()
		switch voucher.EffectiveStatus(now) {
		case constants.VoucherStatusUsed:
			if voucher.AppliedOrderID == orderID {
				discount := computeVoucherDiscount(voucher, input.OrderAmount.Decimal)
				result.Voucher = voucher
				result.DiscountAmount = models.NewMoneyFromDecimal(discount)
				result.PayableAmount = models.NewMoneyFromDecimal(input.OrderAmount.Decimal.Sub(discount).Round(2))
				result.Replayed = true
				return nil
			}
			return ErrVoucherAlreadyUsed
		case constants.VoucherStatusExpired:
			// 懒过期：过期的 active 券顺带落库
			if voucher.Status == constants.VoucherStatusActive {
				voucher.Status = constants.VoucherStatusExpired
				voucher.UpdatedAt = now
				if updateErr := repo.Update(voucher); updateErr != nil {
					return updateErr
				}
			}
			return ErrVoucherExpired
		case constants.VoucherStatusActive:
			// 继续核销
		default:
			return ErrVoucherNotActive
		}

		if input.OrderAmount.Decimal.LessThan(voucher.MinOrderAmount.Decimal) {
			return ErrVoucherMinOrder
		}

		// 叠加约束：同订单已有其他券时，任一方不可叠加则拒绝
		applied, err := repo.ListUsedByOrder(account.ID, orderID)
		if err != nil {
			return err
		}
		for _, other := range applied {
			if other.ID == voucher.ID {
				continue
			}
			if !voucher.Stackable || !other.Stackable {
				return ErrVoucherNotStackable
			}
		}

		discount := computeVoucherDiscount(voucher, input.OrderAmount.Decimal)
		usedAt := now
		voucher.Status = constants.VoucherStatusUsed
		voucher.UsedAt = &usedAt
		voucher.AppliedOrderID = orderID
		voucher.UpdatedAt = now
		if err := repo.Update(voucher); err != nil {
			return err
		}

		result.Voucher = voucher
		result.DiscountAmount = models.NewMoneyFromDecimal(discount)
		result.PayableAmount = models.NewMoneyFromDecimal(input.OrderAmount.Decimal.Sub(discount).Round(2))
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ExpireVoucher 到期处理：将仍为 active 的过期券落库为 expired
// 由延迟队列任务触发，提前触发时静默跳过
func (s *VoucherService) ExpireVoucher(voucherID uint) error {
	return s.voucherRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.voucherRepo.WithTx(tx)
		voucher, err := repo.GetByIDForUpdate(voucherID)
		if err != nil {
			return err
		}
		if voucher == nil {
			return nil
		}
		now := s.clock.Now()
		if voucher.Status != constants.VoucherStatusActive || now.Before(voucher.ExpiresAt) {
			return nil
		}
		voucher.Status = constants.VoucherStatusExpired
		voucher.UpdatedAt = now
		return repo.Update(voucher)
	})
}

// computeVoucherDiscount 按券面快照条款计算折扣金额
// 折扣不超过订单金额，percent 券受最高折扣占比约束
func computeVoucherDiscount(voucher *models.Voucher, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch voucher.Type {
	case constants.RewardTypePercent:
		discount = orderAmount.Mul(voucher.Value.Decimal).Div(decimal.NewFromInt(100))
	default:
		discount = voucher.Value.Decimal
	}
	if voucher.MaxDiscountPercent.Decimal.GreaterThan(decimal.Zero) {
		limit := orderAmount.Mul(voucher.MaxDiscountPercent.Decimal).Div(decimal.NewFromInt(100))
		if discount.GreaterThan(limit) {
			discount = limit
		}
	}
	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}
