package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/loyaltyclub-next/internal/cache"
	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/logger"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/queue"
	"github.com/loyaltyclub-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderEventService 外部订单事件服务
// 订单系统通过签名回调推送 order.paid / order.completed 事件
type OrderEventService struct {
	ledgerRepo    repository.LedgerRepository
	ledgerSvc     *LedgerService
	levelSvc      *LevelService
	referralSvc   *ReferralService
	queueClient   *queue.Client
	webhookSecret string
	clock         Clock
}

// OrderEventInput 订单事件输入
type OrderEventInput struct {
	EventType string
	OrderID   string
	UserID    uint
	Amount    models.Money
}

// OrderPaidResult order.paid 处理结果
type OrderPaidResult struct {
	Account        *models.ClubAccount
	CashbackPoints int64
	XPGain         int64
	LeveledUp      bool
	FromLevel      string
	ToLevel        string
}

// NewOrderEventService 创建订单事件服务
func NewOrderEventService(
	ledgerRepo repository.LedgerRepository,
	ledgerSvc *LedgerService,
	levelSvc *LevelService,
	referralSvc *ReferralService,
	queueClient *queue.Client,
	webhookSecret string,
	clock Clock,
) *OrderEventService {
	if clock == nil {
		clock = RealClock()
	}
	return &OrderEventService{
		ledgerRepo:    ledgerRepo,
		ledgerSvc:     ledgerSvc,
		levelSvc:      levelSvc,
		referralSvc:   referralSvc,
		queueClient:   queueClient,
		webhookSecret: webhookSecret,
		clock:         clock,
	}
}

// VerifySignature 校验回调签名（HMAC-SHA256，十六进制小写）
func (s *OrderEventService) VerifySignature(body []byte, signature string) error {
	secret := strings.TrimSpace(s.webhookSecret)
	if secret == "" {
		logger.Warnw("order_webhook_secret_empty", "hint", "signature check skipped")
		return nil
	}
	signature = strings.TrimSpace(strings.ToLower(signature))
	if signature == "" {
		return ErrOrderEventSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrOrderEventSignature
	}
	return nil
}

// Handle 分发订单事件
func (s *OrderEventService) Handle(input OrderEventInput) error {
	switch input.EventType {
	case constants.OrderEventPaid:
		_, err := s.HandlePaid(input)
		return err
	case constants.OrderEventCompleted:
		return s.HandleCompleted(input)
	default:
		return ErrOrderEventInvalid
	}
}

// HandlePaid 处理 order.paid：按等级返点入账并累计 XP
func (s *OrderEventService) HandlePaid(input OrderEventInput) (*OrderPaidResult, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" || input.UserID == 0 {
		return nil, ErrOrderEventInvalid
	}
	if input.Amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrOrderEventInvalid
	}
	account, err := s.ledgerSvc.GetAccountByUserID(input.UserID)
	if err != nil {
		return nil, err
	}

	result := &OrderPaidResult{}
	idemKey := fmt.Sprintf("order:%s:cashback", orderID)
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.ledgerRepo.WithTx(tx)

		// 重放：本单已处理过，返点与 XP 都不重复累计
		existing, err := repo.GetTransactionByIdempotencyKey(account.ID, idemKey)
		if err != nil {
			return err
		}
		if existing != nil {
			current, accErr := repo.GetAccountByID(account.ID)
			if accErr != nil {
				return accErr
			}
			result.Account = current
			result.CashbackPoints = existing.Amount
			return nil
		}

		level, err := s.levelSvc.ResolveLevel(account.XP)
		if err != nil {
			return err
		}
		cashback := input.Amount.Decimal.
			Mul(level.CashbackPercent.Decimal).
			Div(decimal.NewFromInt(100)).
			Round(0).IntPart()
		if cashback > 0 {
			if _, _, err := s.ledgerSvc.CreditInTx(tx, PointsChangeInput{
				AccountID:      account.ID,
				Amount:         cashback,
				Reason:         constants.PointsReasonOrderCashback,
				IdempotencyKey: idemKey,
				OrderID:        orderID,
				Remark:         fmt.Sprintf("消费返点（订单 %s）", orderID),
			}); err != nil {
				return err
			}
		} else {
			// 返点为零时写零额流水占位，保证事件只处理一次
			if err := s.writeCashbackMarker(tx, account.ID, idemKey, orderID); err != nil {
				return err
			}
		}

		xpGain := input.Amount.Decimal.Round(0).IntPart()
		change, err := s.levelSvc.GainXPInTx(tx, account.ID, xpGain)
		if err != nil {
			return err
		}
		result.Account = change.Account
		result.CashbackPoints = cashback
		result.XPGain = xpGain
		result.LeveledUp = change.LeveledUp
		if change.FromLevel != nil {
			result.FromLevel = change.FromLevel.Code
		}
		if change.ToLevel != nil {
			result.ToLevel = change.ToLevel.Code
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := cache.DelClubSummary(context.Background(), account.ID); err != nil {
		logger.Warnw("club_summary_cache_del_failed", "account_id", account.ID, "error", err)
	}
	if result.LeveledUp {
		if err := s.queueClient.EnqueueLevelUpNotify(queue.LevelUpNotifyPayload{
			AccountID: account.ID,
			FromLevel: result.FromLevel,
			ToLevel:   result.ToLevel,
			XP:        result.Account.XP,
		}); err != nil {
			logger.Warnw("level_up_notify_enqueue_failed", "account_id", account.ID, "error", err)
		}
	}
	return result, nil
}

func (s *OrderEventService) writeCashbackMarker(tx *gorm.DB, accountID uint, idemKey string, orderID string) error {
	repo := s.ledgerRepo.WithTx(tx)
	account, err := repo.GetAccountByIDForUpdate(accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	txn := &models.PointsTransaction{
		AccountID:      account.ID,
		IdempotencyKey: idemKey,
		Amount:         0,
		Type:           constants.PointsTxnTypeCredit,
		Reason:         constants.PointsReasonOrderCashback,
		BalanceBefore:  account.PointsBalance,
		BalanceAfter:   account.PointsBalance,
		RelatedOrderID: orderID,
		Remark:         fmt.Sprintf("消费返点为零（订单 %s）", orderID),
		CreatedAt:      s.clock.Now(),
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return ErrTransactionCreateFailed
	}
	return nil
}

// HandleCompleted 处理 order.completed：为绑定的代理累计待结算佣金
func (s *OrderEventService) HandleCompleted(input OrderEventInput) error {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" || input.UserID == 0 {
		return ErrOrderEventInvalid
	}
	if input.Amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return ErrOrderEventInvalid
	}
	account, err := s.ledgerSvc.GetAccountByUserID(input.UserID)
	if err != nil {
		return err
	}
	return s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		_, err := s.referralSvc.AccrueForOrderTx(tx, account.ID, orderID, input.Amount)
		return err
	})
}
