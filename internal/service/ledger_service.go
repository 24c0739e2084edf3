package service

import (
	"context"
	"strings"

	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"gorm.io/gorm"
)

// LedgerService 积分账本服务
// 所有余额变动都必须经由本服务落账，保证流水与余额一致
type LedgerService struct {
	ledgerRepo repository.LedgerRepository
	clock      Clock
}

// PointsChangeInput 积分变动输入
type PointsChangeInput struct {
	AccountID      uint
	Amount         int64
	Reason         string
	IdempotencyKey string
	OrderID        string
	Remark         string
}

// AdminAdjustPointsInput 管理员积分调整输入
type AdminAdjustPointsInput struct {
	AccountID      uint
	Delta          int64
	IdempotencyKey string
	Remark         string
}

// NewLedgerService 创建积分账本服务
func NewLedgerService(ledgerRepo repository.LedgerRepository, clock Clock) *LedgerService {
	if clock == nil {
		clock = RealClock()
	}
	return &LedgerService{ledgerRepo: ledgerRepo, clock: clock}
}

// GetAccountByUserID 获取会员账户（不存在时自动创建）
func (s *LedgerService) GetAccountByUserID(userID uint) (*models.ClubAccount, error) {
	if userID == 0 {
		return nil, ErrAccountNotFound
	}
	return s.getOrCreateAccount(userID)
}

// GetAccountByID 按账户ID获取会员账户
func (s *LedgerService) GetAccountByID(accountID uint) (*models.ClubAccount, error) {
	account, err := s.ledgerRepo.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ListAccounts 分页查询会员账户
func (s *LedgerService) ListAccounts(filter repository.ClubAccountListFilter) ([]models.ClubAccount, int64, error) {
	return s.ledgerRepo.ListAccounts(filter)
}

// ListTransactions 分页查询积分流水
func (s *LedgerService) ListTransactions(filter repository.PointsTxnListFilter) ([]models.PointsTransaction, int64, error) {
	return s.ledgerRepo.ListTransactions(filter)
}

// Credit 入账积分
func (s *LedgerService) Credit(input PointsChangeInput) (*models.ClubAccount, *models.PointsTransaction, error) {
	var accountResult *models.ClubAccount
	var txnResult *models.PointsTransaction
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		account, txn, err := s.CreditInTx(tx, input)
		if err != nil {
			return err
		}
		accountResult = account
		txnResult = txn
		return nil
	}); err != nil {
		return nil, nil, err
	}
	s.invalidateSummary(accountResult)
	return accountResult, txnResult, nil
}

// Debit 扣减积分
func (s *LedgerService) Debit(input PointsChangeInput) (*models.ClubAccount, *models.PointsTransaction, error) {
	var accountResult *models.ClubAccount
	var txnResult *models.PointsTransaction
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		account, txn, err := s.DebitInTx(tx, input)
		if err != nil {
			return err
		}
		accountResult = account
		txnResult = txn
		return nil
	}); err != nil {
		return nil, nil, err
	}
	s.invalidateSummary(accountResult)
	return accountResult, txnResult, nil
}

// AdminAdjust 管理员增减账户积分
func (s *LedgerService) AdminAdjust(input AdminAdjustPointsInput) (*models.ClubAccount, *models.PointsTransaction, error) {
	if input.Delta == 0 {
		return nil, nil, ErrInvalidAmount
	}
	change := PointsChangeInput{
		AccountID:      input.AccountID,
		Reason:         constants.PointsReasonAdminAdjustment,
		IdempotencyKey: input.IdempotencyKey,
		Remark:         cleanRemark(input.Remark, "管理员调整积分"),
	}
	if input.Delta > 0 {
		change.Amount = input.Delta
		return s.Credit(change)
	}
	change.Amount = -input.Delta
	return s.Debit(change)
}

// CreditInTx 在事务内入账积分并写入幂等流水
// 幂等键已存在时直接返回历史流水，不重复记账
func (s *LedgerService) CreditInTx(tx *gorm.DB, input PointsChangeInput) (*models.ClubAccount, *models.PointsTransaction, error) {
	return s.changeBalanceInTx(tx, input, constants.PointsTxnTypeCredit)
}

// DebitInTx 在事务内扣减积分并写入幂等流水
func (s *LedgerService) DebitInTx(tx *gorm.DB, input PointsChangeInput) (*models.ClubAccount, *models.PointsTransaction, error) {
	return s.changeBalanceInTx(tx, input, constants.PointsTxnTypeDebit)
}

func (s *LedgerService) changeBalanceInTx(tx *gorm.DB, input PointsChangeInput, txnType string) (*models.ClubAccount, *models.PointsTransaction, error) {
	if tx == nil {
		return nil, nil, ErrTransactionCreateFailed
	}
	if input.AccountID == 0 {
		return nil, nil, ErrAccountNotFound
	}
	if input.Amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	if !constants.ValidPointsReason(input.Reason) {
		return nil, nil, ErrValidation
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" {
		return nil, nil, ErrIdempotencyKeyRequired
	}

	repo := s.ledgerRepo.WithTx(tx)
	exists, err := repo.GetTransactionByIdempotencyKey(input.AccountID, key)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := repo.GetAccountByID(input.AccountID)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		if account == nil {
			return nil, nil, ErrAccountNotFound
		}
		return account, exists, nil
	}

	account, err := repo.GetAccountByIDForUpdate(input.AccountID)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, ErrAccountNotFound
	}
	if account.Status == constants.AccountStatusFrozen {
		return nil, nil, ErrAccountFrozen
	}

	now := s.clock.Now()
	before := account.PointsBalance
	signed := input.Amount
	if txnType == constants.PointsTxnTypeDebit {
		signed = -input.Amount
	}
	after := before + signed
	if after < 0 {
		return nil, nil, ErrInsufficientPoints
	}

	account.PointsBalance = after
	account.Version++
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, ErrAccountUpdateFailed
	}

	txn := &models.PointsTransaction{
		AccountID:      account.ID,
		IdempotencyKey: key,
		Amount:         signed,
		Type:           txnType,
		Reason:         input.Reason,
		BalanceBefore:  before,
		BalanceAfter:   after,
		RelatedOrderID: strings.TrimSpace(input.OrderID),
		Remark:         cleanRemark(input.Remark, "积分变动"),
		CreatedAt:      now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrTransactionCreateFailed
	}
	return account, txn, nil
}

func (s *LedgerService) getOrCreateAccount(userID uint) (*models.ClubAccount, error) {
	account, err := s.ledgerRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := s.clock.Now()
	account = &models.ClubAccount{
		UserID:    userID,
		Status:    constants.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ledgerRepo.CreateAccount(account); err != nil {
		created, queryErr := s.ledgerRepo.GetAccountByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrAccountCreateFailed
	}
	return account, nil
}

func (s *LedgerService) invalidateSummary(account *models.ClubAccount) {
	if account == nil {
		return
	}
	if err := cache.DelClubSummary(context.Background(), account.ID); err != nil {
		logger.Warnw("club_summary_cache_del_failed", "account_id", account.ID, "error", err)
	}
}

func cleanRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}
