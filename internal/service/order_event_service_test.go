package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/loyaltyclub-next/internal/constants"
	"github.com/loyaltyclub-next/internal/models"
	"github.com/loyaltyclub-next/internal/repository"

	"gorm.io/gorm"
)

func setupOrderEventServiceTest(t *testing.T, secret string) (*OrderEventService, *gorm.DB, *testClock) {
	t.Helper()
	db := openClubTestDB(t, "order_event_service")
	createTestLevels(t, db)
	clock := newTestClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	ledgerRepo := repository.NewLedgerRepository(db)
	levelRepo := repository.NewClubLevelRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	ledgerSvc := NewLedgerService(ledgerRepo, clock)
	levelSvc := NewLevelService(levelRepo, ledgerRepo, clock)
	referralSvc := NewReferralService(referralRepo, ledgerRepo, ledgerSvc, clock)
	svc := NewOrderEventService(ledgerRepo, ledgerSvc, levelSvc, referralSvc, nil, secret, clock)
	return svc, db, clock
}

func signTestBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestOrderEventVerifySignature(t *testing.T) {
	svc, _, _ := setupOrderEventServiceTest(t, "webhook-secret")
	body := []byte(`{"event_type":"order.paid","order_id":"ORD-1"}`)

	if err := svc.VerifySignature(body, signTestBody("webhook-secret", body)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := svc.VerifySignature(body, "deadbeef"); !errors.Is(err, ErrOrderEventSignature) {
		t.Fatalf("expected ErrOrderEventSignature, got %v", err)
	}
	if err := svc.VerifySignature(body, ""); !errors.Is(err, ErrOrderEventSignature) {
		t.Fatalf("expected ErrOrderEventSignature for empty header, got %v", err)
	}

	// 未配置密钥时跳过校验
	open, _, _ := setupOrderEventServiceTest(t, "")
	if err := open.VerifySignature(body, ""); err != nil {
		t.Fatalf("expected skip without secret, got %v", err)
	}
}

func TestOrderEventHandlePaidCashbackAndXP(t *testing.T) {
	svc, db, _ := setupOrderEventServiceTest(t, "s")
	// 黄金等级返点 2%
	account := createTestClubAccount(t, db, 1, 0, 600)

	result, err := svc.HandlePaid(OrderEventInput{
		EventType: constants.OrderEventPaid,
		OrderID:   "ORD-250",
		UserID:    account.UserID,
		Amount:    moneyFromString(t, "250"),
	})
	if err != nil {
		t.Fatalf("handle paid failed: %v", err)
	}
	if result.CashbackPoints != 5 {
		t.Fatalf("expected cashback 5, got %d", result.CashbackPoints)
	}
	if result.XPGain != 250 {
		t.Fatalf("expected xp gain 250, got %d", result.XPGain)
	}
	if result.Account.XP != 850 {
		t.Fatalf("expected xp 850, got %d", result.Account.XP)
	}
	if result.LeveledUp {
		t.Fatalf("did not expect level up at 850 xp")
	}

	var fresh models.ClubAccount
	if err := db.First(&fresh, account.ID).Error; err != nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if fresh.PointsBalance != 5 {
		t.Fatalf("expected balance 5, got %d", fresh.PointsBalance)
	}
}

func TestOrderEventHandlePaidLevelUp(t *testing.T) {
	svc, db, _ := setupOrderEventServiceTest(t, "s")
	account := createTestClubAccount(t, db, 1, 0, 450)

	result, err := svc.HandlePaid(OrderEventInput{
		EventType: constants.OrderEventPaid,
		OrderID:   "ORD-UP",
		UserID:    account.UserID,
		Amount:    moneyFromString(t, "100"),
	})
	if err != nil {
		t.Fatalf("handle paid failed: %v", err)
	}
	if !result.LeveledUp {
		t.Fatalf("expected level up from 450+100 xp")
	}
	if result.FromLevel != constants.LevelSilver || result.ToLevel != constants.LevelGold {
		t.Fatalf("expected silver->gold, got %s->%s", result.FromLevel, result.ToLevel)
	}
	// 返点按变动前等级（白银 1%）计算
	if result.CashbackPoints != 1 {
		t.Fatalf("expected cashback 1, got %d", result.CashbackPoints)
	}
}

func TestOrderEventHandlePaidReplay(t *testing.T) {
	svc, db, _ := setupOrderEventServiceTest(t, "s")
	account := createTestClubAccount(t, db, 1, 0, 600)

	input := OrderEventInput{
		EventType: constants.OrderEventPaid,
		OrderID:   "ORD-DUP",
		UserID:    account.UserID,
		Amount:    moneyFromString(t, "250"),
	}
	first, err := svc.HandlePaid(input)
	if err != nil {
		t.Fatalf("first handle failed: %v", err)
	}
	replay, err := svc.HandlePaid(input)
	if err != nil {
		t.Fatalf("replay handle failed: %v", err)
	}
	if replay.CashbackPoints != first.CashbackPoints {
		t.Fatalf("expected replayed cashback %d, got %d", first.CashbackPoints, replay.CashbackPoints)
	}
	if replay.XPGain != 0 {
		t.Fatalf("replay must not grant xp, got %d", replay.XPGain)
	}

	var fresh models.ClubAccount
	if err := db.First(&fresh, account.ID).Error; err != nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if fresh.PointsBalance != 5 || fresh.XP != 850 {
		t.Fatalf("expected balance=5 xp=850 after replay, got balance=%d xp=%d", fresh.PointsBalance, fresh.XP)
	}
}

func TestOrderEventHandlePaidZeroCashback(t *testing.T) {
	svc, db, _ := setupOrderEventServiceTest(t, "s")
	// 白银 1%，20 元返点四舍五入为 0
	account := createTestClubAccount(t, db, 1, 0, 0)

	input := OrderEventInput{
		EventType: constants.OrderEventPaid,
		OrderID:   "ORD-ZERO",
		UserID:    account.UserID,
		Amount:    moneyFromString(t, "20"),
	}
	result, err := svc.HandlePaid(input)
	if err != nil {
		t.Fatalf("handle paid failed: %v", err)
	}
	if result.CashbackPoints != 0 {
		t.Fatalf("expected zero cashback, got %d", result.CashbackPoints)
	}
	if result.XPGain != 20 {
		t.Fatalf("expected xp gain 20, got %d", result.XPGain)
	}

	// 零额占位流水保证重放不重复累计 XP
	if _, err := svc.HandlePaid(input); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	var fresh models.ClubAccount
	if err := db.First(&fresh, account.ID).Error; err != nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if fresh.XP != 20 || fresh.PointsBalance != 0 {
		t.Fatalf("expected xp=20 balance=0, got xp=%d balance=%d", fresh.XP, fresh.PointsBalance)
	}

	var marker models.PointsTransaction
	if err := db.Where("account_id = ? AND idempotency_key = ?", account.ID, "order:ORD-ZERO:cashback").
		First(&marker).Error; err != nil {
		t.Fatalf("load marker txn failed: %v", err)
	}
	if marker.Amount != 0 {
		t.Fatalf("expected zero-amount marker, got %d", marker.Amount)
	}
}

func TestOrderEventHandleCompleted(t *testing.T) {
	svc, db, _ := setupOrderEventServiceTest(t, "s")
	referee := createTestClubAccount(t, db, 1, 0, 0)
	agent := createTestClubAccount(t, db, 2, 0, 0)

	ledgerRepo := repository.NewLedgerRepository(db)
	ledgerSvc := NewLedgerService(ledgerRepo, nil)
	referralSvc := NewReferralService(repository.NewReferralRepository(db), ledgerRepo, ledgerSvc, nil)
	if _, err := referralSvc.Bind(ReferralBindInput{
		RefereeUserID:  referee.UserID,
		AgentAccountID: agent.ID,
		CommissionRate: moneyFromString(t, "0.05"),
	}); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	if err := svc.Handle(OrderEventInput{
		EventType: constants.OrderEventCompleted,
		OrderID:   "ORD-DONE",
		UserID:    referee.UserID,
		Amount:    moneyFromString(t, "5000"),
	}); err != nil {
		t.Fatalf("handle completed failed: %v", err)
	}

	var earning models.AgentEarning
	if err := db.Where("agent_account_id = ? AND order_id = ?", agent.ID, "ORD-DONE").First(&earning).Error; err != nil {
		t.Fatalf("load earning failed: %v", err)
	}
	if earning.Amount != 250 || earning.Status != constants.AgentEarningStatusPending {
		t.Fatalf("unexpected earning: %+v", earning)
	}
}

func TestOrderEventHandleValidation(t *testing.T) {
	svc, db, _ := setupOrderEventServiceTest(t, "s")
	account := createTestClubAccount(t, db, 1, 0, 0)

	if err := svc.Handle(OrderEventInput{EventType: "order.refunded", OrderID: "X", UserID: account.UserID, Amount: moneyFromString(t, "10")}); !errors.Is(err, ErrOrderEventInvalid) {
		t.Fatalf("expected ErrOrderEventInvalid for unknown event, got %v", err)
	}
	if _, err := svc.HandlePaid(OrderEventInput{OrderID: " ", UserID: account.UserID, Amount: moneyFromString(t, "10")}); !errors.Is(err, ErrOrderEventInvalid) {
		t.Fatalf("expected ErrOrderEventInvalid for empty order, got %v", err)
	}
	if _, err := svc.HandlePaid(OrderEventInput{OrderID: "ORD-NEG", UserID: account.UserID, Amount: moneyFromString(t, "0")}); !errors.Is(err, ErrOrderEventInvalid) {
		t.Fatalf("expected ErrOrderEventInvalid for zero amount, got %v", err)
	}
}
